package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xyths/nft-catalog/catalog"
	"github.com/xyths/nft-catalog/extract"
	"github.com/xyths/nft-catalog/opensea"
)

const (
	DefaultRateLimitPause = time.Minute

	// outcome of an item that could not be processed
	OutcomeFailed = "failed"
)

// Extractor builds profiles for links.
type Extractor interface {
	Extract(ctx context.Context, link string) (extract.Result, error)
	DetectScam(ctx context.Context, link string) (bool, error)
}

// Reconciler persists one extraction result.
type Reconciler interface {
	Reconcile(ctx context.Context, link string, res extract.Result) (catalog.Outcome, error)
}

// Observer receives per-item and per-batch measurements.
type Observer interface {
	ItemProcessed(job, outcome string)
	ExtractObserved(d time.Duration)
	BatchFailed(job string, failures int)
}

// Batcher runs the extraction pipeline over a list of links.
type Batcher interface {
	Run(ctx context.Context, job string, links []string) (*Report, error)
	RunScam(ctx context.Context, job string, links []string) (*Report, error)
}

// ItemError is the failure of one link.
type ItemError struct {
	Link string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %s", e.Link, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// Report summarizes one batch. Every link of the batch is counted exactly once.
type Report struct {
	Total    int
	Upserted int
	Deleted  int
	Skipped  int
	Failures []ItemError
}

func (r *Report) Add(o catalog.Outcome) {
	switch o {
	case catalog.OutcomeUpserted:
		r.Upserted++
	case catalog.OutcomeDeleted:
		r.Deleted++
	default:
		r.Skipped++
	}
}

func (r *Report) Fail(link string, err error) {
	r.Failures = append(r.Failures, ItemError{Link: link, Err: err})
}

// Merge adds the counts of o to r.
func (r *Report) Merge(o *Report) {
	if o == nil {
		return
	}
	r.Total += o.Total
	r.Upserted += o.Upserted
	r.Deleted += o.Deleted
	r.Skipped += o.Skipped
	r.Failures = append(r.Failures, o.Failures...)
}

func (r *Report) String() string {
	return fmt.Sprintf("total %d, upserted %d, deleted %d, skipped %d, failed %d",
		r.Total, r.Upserted, r.Deleted, r.Skipped, len(r.Failures))
}

// Runner processes links one after another. A failing link is logged and recorded in the
// report and the batch goes on with the next one.
type Runner struct {
	extractor      Extractor
	reconciler     Reconciler
	Sugar          *zap.SugaredLogger
	Observer       Observer
	RateLimitPause time.Duration
}

func NewRunner(extractor Extractor, reconciler Reconciler, sugar *zap.SugaredLogger) *Runner {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Runner{
		extractor:      extractor,
		reconciler:     reconciler,
		Sugar:          sugar,
		RateLimitPause: DefaultRateLimitPause,
	}
}

// Run extracts and reconciles every link. The error is only set when ctx ends the batch early.
func (r *Runner) Run(ctx context.Context, job string, links []string) (*Report, error) {
	return r.each(ctx, job, links, r.refresh)
}

// RunScam checks the listing pages only and deletes the links that carry the warning marker.
func (r *Runner) RunScam(ctx context.Context, job string, links []string) (*Report, error) {
	return r.each(ctx, job, links, r.scam)
}

func (r *Runner) each(ctx context.Context, job string, links []string, process func(context.Context, string) (catalog.Outcome, error)) (*Report, error) {
	report := &Report{}
	defer func() {
		if n := len(report.Failures); n > 0 && r.Observer != nil {
			r.Observer.BatchFailed(job, n)
		}
	}()
	r.Sugar.Infof("%s: start %d links", job, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			r.Sugar.Infof("%s: stopped, %s", job, report)
			return report, err
		}
		report.Total++
		outcome, err := process(ctx, link)
		if err != nil {
			r.Sugar.Errorf("%s: %s error: %s", job, link, err)
			report.Fail(link, err)
			r.observe(job, OutcomeFailed)
			if opensea.IsRateLimited(err) {
				r.pause(ctx)
			}
			continue
		}
		report.Add(outcome)
		r.observe(job, string(outcome))
	}
	r.Sugar.Infof("%s: done, %s", job, report)
	return report, nil
}

func (r *Runner) refresh(ctx context.Context, link string) (catalog.Outcome, error) {
	begin := time.Now()
	res, err := r.extractor.Extract(ctx, link)
	if r.Observer != nil {
		r.Observer.ExtractObserved(time.Since(begin))
	}
	if err != nil {
		return "", err
	}
	return r.reconciler.Reconcile(ctx, link, res)
}

func (r *Runner) scam(ctx context.Context, link string) (catalog.Outcome, error) {
	scam, err := r.extractor.DetectScam(ctx, link)
	if err != nil {
		return "", err
	}
	if !scam {
		return catalog.OutcomeSkipped, nil
	}
	return r.reconciler.Reconcile(ctx, link, extract.Result{Kind: extract.KindScam, Profile: &extract.Profile{Link: link, Scam: true}})
}

func (r *Runner) pause(ctx context.Context) {
	if r.RateLimitPause <= 0 {
		return
	}
	r.Sugar.Infof("rate limited, pause %s", r.RateLimitPause)
	t := time.NewTimer(r.RateLimitPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *Runner) observe(job, outcome string) {
	if r.Observer != nil {
		r.Observer.ItemProcessed(job, outcome)
	}
}
