package service

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronRunner runs jobs on cron specs with the daemon's context. A job still running when
// its next tick comes is skipped.
type cronRunner struct {
	cron    *cron.Cron
	Sugar   *zap.SugaredLogger
	baseCtx context.Context
}

func newCronRunner(baseCtx context.Context, sugar *zap.SugaredLogger) *cronRunner {
	return &cronRunner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		Sugar:   sugar,
		baseCtx: baseCtx,
	}
}

func (r *cronRunner) Add(name, spec string, job func(context.Context) error) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		r.Sugar.Infof("cron %s start", name)
		if err := job(r.baseCtx); err != nil {
			r.Sugar.Errorf("cron %s error: %s", name, err)
			return
		}
		r.Sugar.Infof("cron %s finish", name)
	})
}

func (r *cronRunner) Entries() int {
	return len(r.cron.Entries())
}

func (r *cronRunner) Start() {
	r.Sugar.Info("cron started")
	r.cron.Start()
}

func (r *cronRunner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.Sugar.Info("cron stopped")
}
