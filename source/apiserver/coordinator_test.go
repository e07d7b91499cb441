package apiserver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamseeds/k8sedit/model/resource"
)

type stubSubscription struct {
	synced   atomic.Bool
	watching atomic.Bool
	running  atomic.Bool

	syncedCalls atomic.Int32
	runCalls    atomic.Int32
	runErr      error
}

func (s *stubSubscription) Run(ctx context.Context) error {
	s.runCalls.Add(1)
	if s.runErr != nil {
		return s.runErr
	}
	s.running.Store(true)
	<-ctx.Done()
	s.running.Store(false)
	return nil
}

func (s *stubSubscription) HasSynced() bool {
	s.syncedCalls.Add(1)
	return s.synced.Load()
}

func (s *stubSubscription) IsWatching() bool {
	return s.watching.Load()
}

func (s *stubSubscription) IsRunning() bool {
	return s.running.Load()
}

type recordingAction struct {
	mu   sync.Mutex
	errs []error
}

func (a *recordingAction) OnFailure(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs = append(a.errs, err)
}

func (a *recordingAction) failures() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]error(nil), a.errs...)
}

func newTestCoordinator(t *testing.T, sub Subscription, opts CoordinatorOptions) (*Coordinator, *Pool) {
	pool := NewPool(context.Background())
	t.Cleanup(func() { _ = pool.Shutdown() })
	return NewCoordinator("API", sub, pool, opts), pool
}

func TestWaitForSyncAlreadySynced(t *testing.T) {
	sub := &stubSubscription{}
	sub.synced.Store(true)
	action := &recordingAction{}
	c, _ := newTestCoordinator(t, sub, CoordinatorOptions{FailureAction: action})

	require.NoError(t, c.WaitForSync(context.Background()))
	assert.Equal(t, int32(1), sub.syncedCalls.Load())
	assert.Empty(t, action.failures())
}

func TestWaitForSyncTimeout(t *testing.T) {
	sub := &stubSubscription{}
	action := &recordingAction{}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c, _ := newTestCoordinator(t, sub, CoordinatorOptions{
		PollInterval:  100 * time.Millisecond,
		Timeout:       300 * time.Millisecond,
		FailureAction: action,
		Metrics:       metrics,
	})

	start := time.Now()
	err := c.WaitForSync(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, resource.ErrSyncTimeout)
	assert.NotErrorIs(t, err, resource.ErrWatchTimeout)
	var timeoutErr *resource.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "API", timeoutErr.Kind)

	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, 400*time.Millisecond)

	require.Len(t, action.failures(), 1)
	assert.Equal(t, err, action.failures()[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.waitTimeouts.WithLabelValues("API", "sync")))
}

func TestWaitForWatchTimeout(t *testing.T) {
	sub := &stubSubscription{}
	sub.synced.Store(true)
	action := &recordingAction{}
	c, _ := newTestCoordinator(t, sub, CoordinatorOptions{
		PollInterval:  10 * time.Millisecond,
		Timeout:       50 * time.Millisecond,
		FailureAction: action,
	})

	require.NoError(t, c.WaitForSync(context.Background()))
	err := c.WaitForWatch(context.Background())
	assert.ErrorIs(t, err, resource.ErrWatchTimeout)
	assert.Len(t, action.failures(), 1)

	// every call runs its own window
	err = c.WaitForWatch(context.Background())
	assert.ErrorIs(t, err, resource.ErrWatchTimeout)
	assert.Len(t, action.failures(), 2)
}

func TestWaitForSyncBecomesReady(t *testing.T) {
	sub := &stubSubscription{}
	action := &recordingAction{}
	c, _ := newTestCoordinator(t, sub, CoordinatorOptions{
		PollInterval:  10 * time.Millisecond,
		Timeout:       time.Second,
		FailureAction: action,
	})

	time.AfterFunc(50*time.Millisecond, func() { sub.synced.Store(true) })
	require.NoError(t, c.WaitForSync(context.Background()))
	assert.Empty(t, action.failures())
}

func TestWaitForSyncCallerCancelled(t *testing.T) {
	sub := &stubSubscription{}
	action := &recordingAction{}
	c, _ := newTestCoordinator(t, sub, CoordinatorOptions{
		PollInterval:  10 * time.Millisecond,
		Timeout:       time.Second,
		FailureAction: action,
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	err := c.WaitForSync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, action.failures())
}

func TestCoordinatorStartOnce(t *testing.T) {
	sub := &stubSubscription{}
	c, _ := newTestCoordinator(t, sub, CoordinatorOptions{FailureAction: &recordingAction{}})

	assert.False(t, c.IsStarted())
	for i := 0; i < 5; i++ {
		c.Start()
	}
	assert.True(t, c.IsStarted())
	assert.Eventually(t, sub.IsRunning, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), sub.runCalls.Load())
}

func TestCoordinatorStartFailure(t *testing.T) {
	runErr := errors.New("forbidden")
	sub := &stubSubscription{runErr: runErr}
	action := &recordingAction{}
	c, pool := newTestCoordinator(t, sub, CoordinatorOptions{FailureAction: action})

	c.Start()
	assert.Eventually(t, func() bool { return len(action.failures()) == 1 }, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, action.failures()[0], runErr)
	assert.ErrorIs(t, pool.Shutdown(), runErr)
}

func TestCoordinatorHealth(t *testing.T) {
	sub := &stubSubscription{}
	c, _ := newTestCoordinator(t, sub, CoordinatorOptions{FailureAction: &recordingAction{}})

	assert.False(t, c.IsHealthy())

	sub.running.Store(true)
	sub.synced.Store(true)
	assert.False(t, c.IsHealthy())
	assert.False(t, c.SyncedAndWatching())

	sub.watching.Store(true)
	assert.True(t, c.IsHealthy())
	assert.True(t, c.SyncedAndWatching())

	sub.watching.Store(false)
	assert.False(t, c.IsHealthy())
}

func TestFailureActionFor(t *testing.T) {
	tests := []struct {
		policy  string
		wantErr bool
	}{
		{policy: ""},
		{policy: "exit"},
		{policy: "continue"},
		{policy: "retry", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			action, err := FailureActionFor(tt.policy)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, action)
		})
	}
}
