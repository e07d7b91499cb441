package apiserver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Pool runs the background work of all coordinators sharing a
// connection: one long-lived subscription loop per kind plus short
// tasks. It is unbounded.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
}

func NewPool(parent context.Context) *Pool {
	ctx, cancel := context.WithCancel(parent)
	return &Pool{ctx: ctx, cancel: cancel}
}

// Go runs fn on the pool. fn receives the pool context, which is
// cancelled by Shutdown. A panic in fn is recovered and returned as its
// error.
func (p *Pool) Go(fn func(ctx context.Context) error) {
	p.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in pool task: %v", r)
				klog.ErrorS(err, "Recovered pool task")
			}
		}()
		return fn(p.ctx)
	})
}

func (p *Pool) Context() context.Context {
	return p.ctx
}

// Shutdown cancels the pool context and waits for all tasks. It returns
// the first task error.
func (p *Pool) Shutdown() error {
	p.cancel()
	return p.group.Wait()
}
