package apiserver

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/model/resource"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultSyncTimeout  = 15 * time.Second
)

// FailureAction is invoked when an informer cannot start or a bounded
// wait times out.
type FailureAction interface {
	OnFailure(err error)
}

type FailureActionFunc func(err error)

func (f FailureActionFunc) OnFailure(err error) {
	f(err)
}

var (
	// ExitOnFailure terminates the process. An unsynced cache is not
	// served.
	ExitOnFailure FailureAction = FailureActionFunc(func(err error) {
		klog.ErrorS(err, "Informer failure, exiting")
		klog.FlushAndExit(klog.ExitFlushTimeout, 1)
	})

	// ContinueOnFailure only logs. The error still reaches the caller.
	ContinueOnFailure FailureAction = FailureActionFunc(func(err error) {
		klog.ErrorS(err, "Informer failure, continuing")
	})
)

// FailureActionFor maps a configured policy name to a FailureAction.
func FailureActionFor(policy string) (FailureAction, error) {
	switch policy {
	case "", "exit":
		return ExitOnFailure, nil
	case "continue":
		return ContinueOnFailure, nil
	}
	return nil, fmt.Errorf("unknown failure policy %q", policy)
}

type CoordinatorOptions struct {
	PollInterval  time.Duration
	Timeout       time.Duration
	FailureAction FailureAction
	Metrics       *Metrics
}

func (o CoordinatorOptions) withDefaults() CoordinatorOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultSyncTimeout
	}
	if o.FailureAction == nil {
		o.FailureAction = ExitOnFailure
	}
	return o
}

// Coordinator starts a Subscription on the shared pool and waits, with a
// bound, for it to sync and to establish its watch.
type Coordinator struct {
	kind string
	sub  Subscription
	pool *Pool
	opts CoordinatorOptions

	started atomic.Bool
}

func NewCoordinator(kind string, sub Subscription, pool *Pool, opts CoordinatorOptions) *Coordinator {
	return &Coordinator{
		kind: kind,
		sub:  sub,
		pool: pool,
		opts: opts.withDefaults(),
	}
}

// Start schedules the subscription on the pool. Only the first call has
// an effect.
func (c *Coordinator) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	klog.InfoS("Starting informer", "kind", c.kind)
	c.pool.Go(func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("informer for %s panicked: %v", c.kind, r)
			}
			if err != nil {
				klog.ErrorS(err, "Error starting informer", "kind", c.kind)
				c.opts.FailureAction.OnFailure(err)
			}
		}()
		return c.sub.Run(ctx)
	})
}

func (c *Coordinator) IsStarted() bool {
	return c.started.Load()
}

// WaitForSync blocks until the initial list has been indexed.
func (c *Coordinator) WaitForSync(ctx context.Context) error {
	return c.wait(ctx, resource.PhaseSync, c.sub.HasSynced)
}

// WaitForWatch blocks until the watch is established.
func (c *Coordinator) WaitForWatch(ctx context.Context) error {
	return c.wait(ctx, resource.PhaseWatch, c.sub.IsWatching)
}

func (c *Coordinator) wait(ctx context.Context, phase resource.Phase, ready func() bool) error {
	if ready() {
		return nil
	}

	start := time.Now()
	err := wait.PollUntilContextTimeout(ctx, c.opts.PollInterval, c.opts.Timeout, false,
		func(context.Context) (bool, error) {
			return ready(), nil
		})
	c.opts.Metrics.observeWait(c.kind, phase, time.Since(start))
	if err == nil {
		klog.V(2).InfoS("Informer ready", "kind", c.kind, "phase", phase, "waited", time.Since(start))
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	timeoutErr := &resource.TimeoutError{Kind: c.kind, Phase: phase, Timeout: c.opts.Timeout}
	klog.ErrorS(timeoutErr, "Informer not ready in time", "kind", c.kind, "phase", phase)
	c.opts.Metrics.incTimeout(c.kind, phase)
	c.opts.FailureAction.OnFailure(timeoutErr)
	return timeoutErr
}

// SyncedAndWatching reports whether reads can be served from the cache.
func (c *Coordinator) SyncedAndWatching() bool {
	return c.sub.HasSynced() && c.sub.IsWatching()
}

// IsHealthy reports running, synced and watching. It has no side
// effects.
func (c *Coordinator) IsHealthy() bool {
	return c.sub.IsRunning() && c.SyncedAndWatching()
}
