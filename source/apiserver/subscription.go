package apiserver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/tools/cache"
	"k8s.io/klog/v2"
)

// Subscription is the background list+watch the coordinator drives.
type Subscription interface {
	// Run blocks until ctx is done.
	Run(ctx context.Context) error

	HasSynced() bool
	IsWatching() bool
	IsRunning() bool
}

// InformerSubscription is a Subscription backed by a shared index
// informer. The informer's indexer is the local cache.
type InformerSubscription struct {
	kind     string
	informer cache.SharedIndexInformer

	ctx      context.Context
	running  atomic.Bool
	watching atomic.Bool

	watchMux     sync.Mutex
	currentWatch *trackedWatch

	listenerMux       sync.RWMutex
	watchErrListeners []func(err error)
}

var _ Subscription = (*InformerSubscription)(nil)

// NewInformerSubscription builds a subscription over store. An empty
// namespace watches all namespaces.
func NewInformerSubscription(kind string, store RemoteStore, namespace string, resyncPeriod time.Duration) *InformerSubscription {
	s := &InformerSubscription{
		kind: kind,
		ctx:  context.Background(),
	}

	lw := &cache.ListWatch{
		ListFunc: func(opts metav1.ListOptions) (runtime.Object, error) {
			return store.List(s.ctx, namespace, opts)
		},
		WatchFunc: func(opts metav1.ListOptions) (watch.Interface, error) {
			w, err := store.Watch(s.ctx, namespace, opts)
			if err != nil {
				s.watching.Store(false)
				return nil, err
			}
			tracked := &trackedWatch{Interface: w}
			tracked.onStop = func() { s.watchStopped(tracked) }

			s.watchMux.Lock()
			s.currentWatch = tracked
			s.watching.Store(true)
			s.watchMux.Unlock()
			klog.V(4).InfoS("Watch established", "kind", s.kind, "resourceVersion", opts.ResourceVersion)
			return tracked, nil
		},
	}

	s.informer = cache.NewSharedIndexInformer(lw, &unstructured.Unstructured{}, resyncPeriod, cache.Indexers{
		cache.NamespaceIndex: cache.MetaNamespaceIndexFunc,
	})
	_ = s.informer.SetWatchErrorHandler(func(r *cache.Reflector, err error) {
		s.watching.Store(false)
		cache.DefaultWatchErrorHandler(r, err)

		s.listenerMux.RLock()
		defer s.listenerMux.RUnlock()
		for _, listener := range s.watchErrListeners {
			listener(err)
		}
	})
	return s
}

func (s *InformerSubscription) Run(ctx context.Context) error {
	s.ctx = ctx
	s.running.Store(true)
	defer func() {
		s.running.Store(false)
		s.watching.Store(false)
	}()

	s.informer.Run(ctx.Done())
	return nil
}

func (s *InformerSubscription) HasSynced() bool {
	return s.informer.HasSynced()
}

func (s *InformerSubscription) IsWatching() bool {
	return s.watching.Load()
}

func (s *InformerSubscription) IsRunning() bool {
	return s.running.Load() && !s.informer.IsStopped()
}

// ReportWatchLost marks the watch as down and stops it, so the informer
// lists and watches again. IsWatching turns true once the new watch
// call succeeds.
func (s *InformerSubscription) ReportWatchLost() {
	s.watchMux.Lock()
	current := s.currentWatch
	s.currentWatch = nil
	s.watching.Store(false)
	s.watchMux.Unlock()

	if current != nil {
		klog.V(2).InfoS("Watch reported lost, restarting it", "kind", s.kind)
		current.Stop()
	}
}

// watchStopped clears the watch state unless a newer watch replaced w.
func (s *InformerSubscription) watchStopped(w *trackedWatch) {
	s.watchMux.Lock()
	defer s.watchMux.Unlock()
	if s.currentWatch == w {
		s.currentWatch = nil
		s.watching.Store(false)
	}
}

// LastSyncResourceVersion is the resource version observed by the last
// list or watch event.
func (s *InformerSubscription) LastSyncResourceVersion() string {
	return s.informer.LastSyncResourceVersion()
}

// AddWatchErrorListener registers a callback for watch failures, e.g.
// expired resource versions or dropped connections.
func (s *InformerSubscription) AddWatchErrorListener(listener func(err error)) {
	s.listenerMux.Lock()
	defer s.listenerMux.Unlock()
	s.watchErrListeners = append(s.watchErrListeners, listener)
}

func (s *InformerSubscription) Informer() cache.SharedIndexInformer {
	return s.informer
}

type trackedWatch struct {
	watch.Interface
	onStop func()

	stopOnce sync.Once
}

func (w *trackedWatch) Stop() {
	w.stopOnce.Do(func() {
		w.Interface.Stop()
		w.onStop()
	})
}
