package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatcher starts jobs without waiting for them.
type Dispatcher interface {
	Submit(name string, job func(ctx context.Context) error)
}

// Pool runs submitted jobs on at most limit goroutines. Submit only blocks while every
// worker is busy. Job errors are logged, they never cancel other jobs.
type Pool struct {
	ctx   context.Context
	g     *errgroup.Group
	Sugar *zap.SugaredLogger
}

func NewPool(ctx context.Context, limit int, sugar *zap.SugaredLogger) *Pool {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &Pool{ctx: ctx, g: g, Sugar: sugar}
}

func (p *Pool) Submit(name string, job func(ctx context.Context) error) {
	p.g.Go(func() error {
		p.Sugar.Infof("job %s started", name)
		if err := job(p.ctx); err != nil {
			p.Sugar.Errorf("job %s error: %s", name, err)
			return err
		}
		p.Sugar.Infof("job %s finished", name)
		return nil
	})
}

// Wait blocks until every submitted job returned, and returns the first job error.
func (p *Pool) Wait() error {
	return p.g.Wait()
}
