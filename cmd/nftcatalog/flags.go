package main

import "github.com/urfave/cli/v2"

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config.json",
		Usage:   "load configuration from `file`",
	}

	WalkFileFlag = &cli.BoolFlag{
		Name:  "file",
		Value: true,
		Usage: "walk the collections listed in the collections file",
	}
	WalkTableFlag = &cli.BoolFlag{
		Name:  "table",
		Usage: "walk the collection registry",
	}
	WalkStartFlag = &cli.IntFlag{
		Name:  "start",
		Usage: "start from collection `index`",
	}
	WalkBackwardFlag = &cli.BoolFlag{
		Name:  "backward",
		Usage: "walk toward the start of the list",
	}
	WalkSplitFlag = &cli.BoolFlag{
		Name:  "split",
		Usage: "walk the first half forward and the second half backward at the same time",
	}

	RefreshFromFlag = &cli.Int64Flag{
		Name:  "from",
		Usage: "start refresh from this offset",
	}
	RefreshToFlag = &cli.Int64Flag{
		Name:  "to",
		Value: -1,
		Usage: "end refresh before this offset, -1 for all",
	}
	RefreshAutoFlag = &cli.BoolFlag{
		Name:  "auto",
		Usage: "split the catalog into partitions and refresh them concurrently",
	}
)
