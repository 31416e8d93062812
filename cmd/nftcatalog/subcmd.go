package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/xyths/hs"

	"github.com/xyths/nft-catalog/pipeline"
	"github.com/xyths/nft-catalog/service"
)

var (
	collectionCommand = &cli.Command{
		Name:  "collection",
		Usage: "Manage collections",
		Subcommands: []*cli.Command{
			{
				Action: syncCollections,
				Name:   "sync",
				Usage:  "Pull verified collections from Blockdaemon into the registry",
			},
			{
				Action: walkCollections,
				Name:   "walk",
				Usage:  "Discover NFTs collection by collection and extract them",
				Flags: []cli.Flag{
					WalkFileFlag,
					WalkTableFlag,
					WalkStartFlag,
					WalkBackwardFlag,
					WalkSplitFlag,
				},
			},
		},
	}
	nftCommand = &cli.Command{
		Name:  "nft",
		Usage: "Manage catalog NFTs",
		Subcommands: []*cli.Command{
			{
				Action:    extractNft,
				Name:      "extract",
				Usage:     "Print the profile of one NFT",
				ArgsUsage: "LINK",
			},
			{
				Action: refreshNfts,
				Name:   "refresh",
				Usage:  "Extract catalog NFTs again",
				Flags: []cli.Flag{
					RefreshFromFlag,
					RefreshToFlag,
					RefreshAutoFlag,
				},
			},
			{
				Action: sweepStale,
				Name:   "stale",
				Usage:  "Extract NFTs not updated for a day",
			},
			{
				Action: sweepScam,
				Name:   "scam",
				Usage:  "Delete NFTs flagged as scam",
			},
		},
	}
	serveCommand = &cli.Command{
		Action: serve,
		Name:   "serve",
		Usage:  "Run every job on its schedule and serve metrics",
	}
)

func newService(c *cli.Context) (*service.Service, error) {
	configFile := c.String(ConfigFlag.Name)
	cfg := service.Config{}
	if err := hs.ParseJsonConfig(configFile, &cfg); err != nil {
		return nil, err
	}
	s := service.New(cfg)
	if err := s.Init(c.Context); err != nil {
		return nil, err
	}
	return s, nil
}

func syncCollections(c *cli.Context) error {
	s, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	created, err := s.SyncCollections(c.Context)
	if err != nil {
		return err
	}
	s.Sugar.Infof("%d new collections", created)
	return nil
}

func walkCollections(c *cli.Context) error {
	s, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	opt := service.WalkOptions{
		Source:   service.SourceFile,
		Start:    c.Int(WalkStartFlag.Name),
		Backward: c.Bool(WalkBackwardFlag.Name),
		Split:    c.Bool(WalkSplitFlag.Name),
	}
	if c.Bool(WalkTableFlag.Name) {
		opt.Source = service.SourceTable
	}
	report, err := s.Walk(c.Context, opt)
	if report != nil {
		s.Sugar.Infof("walk: %s", report)
	}
	return err
}

func extractNft(c *cli.Context) error {
	link := c.Args().First()
	if link == "" {
		return fmt.Errorf("missing LINK")
	}
	s, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	res, err := s.Extract(c.Context, link)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Kind    string      `json:"kind"`
		Profile interface{} `json:"profile"`
	}{res.Kind.String(), res.Profile})
}

func refreshNfts(c *cli.Context) error {
	s, err := newService(c)
	if err != nil {
		return err
	}
	// Close waits for the dispatched partitions
	defer s.Close(c.Context)
	if c.Bool(RefreshAutoFlag.Name) {
		_, err = s.RefreshAuto(c.Context)
		return err
	}
	w := pipeline.Window{Start: c.Int64(RefreshFromFlag.Name), End: c.Int64(RefreshToFlag.Name)}
	report, err := s.Refresh(c.Context, w)
	if report != nil {
		s.Sugar.Infof("refresh %s: %s", w, report)
	}
	return err
}

func sweepStale(c *cli.Context) error {
	s, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	report, err := s.SweepStale(c.Context)
	if report != nil {
		s.Sugar.Infof("stale: %s", report)
	}
	return err
}

func sweepScam(c *cli.Context) error {
	s, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	report, err := s.SweepScam(c.Context)
	if report != nil {
		s.Sugar.Infof("scam: %s", report)
	}
	return err
}

func serve(c *cli.Context) error {
	s, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	return s.Serve(c.Context)
}
