package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	p := NewPool(context.Background(), 2, nil)
	var (
		done    int32
		running int32
		peak    int32
	)
	for i := 0; i < 10; i++ {
		p.Submit("count", func(context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			atomic.AddInt32(&done, 1)
			atomic.AddInt32(&running, -1)
			return nil
		})
	}
	assert.NoError(t, p.Wait())
	assert.Equal(t, int32(10), done)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestPoolJobErrors(t *testing.T) {
	p := NewPool(context.Background(), 0, nil)
	var done int32
	boom := errors.New("boom")
	p.Submit("fail", func(context.Context) error { return boom })
	p.Submit("ok", func(context.Context) error {
		atomic.AddInt32(&done, 1)
		return nil
	})
	assert.ErrorIs(t, p.Wait(), boom)
	assert.Equal(t, int32(1), done)
}
