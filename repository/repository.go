// Package repository provides typed create, read, update and delete
// access to one resource kind. Reads are served from an informer cache
// that is synced on demand. Writes go to the remote store.
package repository

import (
	"context"
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/model/resource"
	"github.com/vamseeds/k8sedit/source/apiserver"
)

const defaultNamespace = corev1.NamespaceDefault

// Handler is what a Repository needs from the resource handler of its
// kind. *apiserver.ResourceHandler implements it.
type Handler[T resource.Object] interface {
	Start()
	WaitForSync(ctx context.Context) error
	IsHealthy() bool
	LastSyncResourceVersion() string

	GetByName(ctx context.Context, name, namespace string) (T, bool, error)
	List(ctx context.Context, namespace string) ([]T, error)
	Create(ctx context.Context, namespace string, obj T) (T, error)
	CreateOrReplace(ctx context.Context, namespace string, obj T) (T, error)
	Replace(ctx context.Context, namespace string, obj T) (T, error)
	Delete(ctx context.Context, namespace, name string) (bool, error)

	AddEventHandler(handler resource.ResHandler[T]) error
}

var _ Handler[resource.Object] = (*apiserver.ResourceHandler[resource.Object])(nil)

// HandlerFactory builds the handler of a repository on first use.
type HandlerFactory[T resource.Object] func(conn *apiserver.Connection, kind resource.Kind, newObject func() T) (Handler[T], error)

func DefaultHandlerFactory[T resource.Object](conn *apiserver.Connection, kind resource.Kind, newObject func() T) (Handler[T], error) {
	return apiserver.NewResourceHandler(conn, kind, newObject), nil
}

type Option[T resource.Object] func(*Repository[T])

func WithHandlerFactory[T resource.Object](factory HandlerFactory[T]) Option[T] {
	return func(r *Repository[T]) {
		r.factory = factory
	}
}

type Repository[T resource.Object] struct {
	conn      *apiserver.Connection
	kind      resource.Kind
	newObject func() T
	factory   HandlerFactory[T]

	handlerMux sync.Mutex
	handler    Handler[T]

	syncOnce sync.Once
}

// New returns the repository of kind. conn must not be nil and kind
// must be registered with resource.RegisterKind.
func New[T resource.Object](conn *apiserver.Connection, kind resource.Kind, newObject func() T, opts ...Option[T]) (*Repository[T], error) {
	if conn == nil {
		return nil, &resource.InitializationError{
			Component:  kind.Kind + " repository",
			Dependency: "shared connection",
		}
	}
	if _, _, find := resource.LookupKind(kind.GVK()); !find {
		return nil, &resource.InitializationError{
			Component:  kind.Kind + " repository",
			Dependency: "kind registration",
			Err:        fmt.Errorf("kind %s is not registered", kind.GVK()),
		}
	}
	r := &Repository[T]{
		conn:      conn,
		kind:      kind,
		newObject: newObject,
		factory:   DefaultHandlerFactory[T],
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handler returns the resource handler, building it on first use.
func (r *Repository[T]) Handler() (Handler[T], error) {
	r.handlerMux.Lock()
	defer r.handlerMux.Unlock()
	if r.handler != nil {
		return r.handler, nil
	}
	handler, err := r.factory(r.conn, r.kind, r.newObject)
	if err != nil {
		return nil, &resource.InitializationError{
			Component:  r.kind.Kind + " repository",
			Dependency: "resource handler",
			Err:        err,
		}
	}
	r.handler = handler
	return handler, nil
}

// StartSync starts the informer if needed. The returned channel yields
// the outcome of waiting for the cache to sync, then closes.
func (r *Repository[T]) StartSync() <-chan error {
	result := make(chan error, 1)
	handler, err := r.Handler()
	if err != nil {
		result <- err
		close(result)
		return result
	}
	r.startSyncIfNeeded(handler)

	r.conn.Pool().Go(func(ctx context.Context) error {
		result <- handler.WaitForSync(ctx)
		close(result)
		return nil
	})
	return result
}

func (r *Repository[T]) startSyncIfNeeded(handler Handler[T]) {
	r.syncOnce.Do(func() {
		handler.Start()
		klog.InfoS("Sync started", "kind", r.kind.Kind)
	})
}

// GetResourceInNamespace returns the cached object. The boolean is false
// if there is none.
func (r *Repository[T]) GetResourceInNamespace(ctx context.Context, name, namespace string) (T, bool, error) {
	handler, err := r.Handler()
	if err != nil {
		var zero T
		return zero, false, err
	}
	return handler.GetByName(ctx, name, namespace)
}

func (r *Repository[T]) GetResourcesInNamespace(ctx context.Context, namespace string) ([]T, error) {
	handler, err := r.Handler()
	if err != nil {
		return nil, err
	}
	if len(namespace) == 0 {
		namespace = defaultNamespace
	}
	return handler.List(ctx, namespace)
}

func (r *Repository[T]) GetResourcesInAllNamespaces(ctx context.Context) ([]T, error) {
	handler, err := r.Handler()
	if err != nil {
		return nil, err
	}
	return handler.List(ctx, "")
}

// GetResourceCount counts the cached objects across all namespaces.
func (r *Repository[T]) GetResourceCount(ctx context.Context) (int, error) {
	resources, err := r.GetResourcesInAllNamespaces(ctx)
	if err != nil {
		return 0, err
	}
	return len(resources), nil
}

func (r *Repository[T]) CreateResourceInNamespace(ctx context.Context, obj T, namespace string) (T, error) {
	handler, err := r.Handler()
	if err != nil {
		var zero T
		return zero, err
	}
	return handler.Create(ctx, r.stampNamespace(obj, namespace), obj)
}

// UpdateResourceInNamespace creates obj or replaces the existing one.
func (r *Repository[T]) UpdateResourceInNamespace(ctx context.Context, obj T, namespace string) (T, error) {
	handler, err := r.Handler()
	if err != nil {
		var zero T
		return zero, err
	}
	return handler.CreateOrReplace(ctx, r.stampNamespace(obj, namespace), obj)
}

// ReplaceResourceInNamespace replaces an object that must already exist.
func (r *Repository[T]) ReplaceResourceInNamespace(ctx context.Context, obj T, namespace string) (T, error) {
	handler, err := r.Handler()
	if err != nil {
		var zero T
		return zero, err
	}
	return handler.Replace(ctx, r.stampNamespace(obj, namespace), obj)
}

// DeleteResourceInNamespace deletes the named object. If the cache does
// not hold it, false is returned and the remote store is not called.
func (r *Repository[T]) DeleteResourceInNamespace(ctx context.Context, name, namespace string) (bool, error) {
	handler, err := r.Handler()
	if err != nil {
		return false, err
	}
	r.startSyncIfNeeded(handler)

	obj, found, err := handler.GetByName(ctx, name, namespace)
	if err != nil || !found {
		return false, err
	}
	return r.DeleteResource(ctx, obj, namespace)
}

// DeleteResource deletes obj on the remote store.
func (r *Repository[T]) DeleteResource(ctx context.Context, obj T, namespace string) (bool, error) {
	handler, err := r.Handler()
	if err != nil {
		return false, err
	}
	return handler.Delete(ctx, r.stampNamespace(obj, namespace), obj.GetName())
}

// IsHealthy reports whether the informer is running, synced and
// watching. It is evaluated on every call.
func (r *Repository[T]) IsHealthy() bool {
	r.handlerMux.Lock()
	handler := r.handler
	r.handlerMux.Unlock()
	if handler == nil {
		return false
	}
	return handler.IsHealthy()
}

func (r *Repository[T]) IsReady() bool {
	return r.IsHealthy()
}

// LastSync is the last resource version the informer observed.
func (r *Repository[T]) LastSync() string {
	r.handlerMux.Lock()
	handler := r.handler
	r.handlerMux.Unlock()
	if handler == nil {
		return ""
	}
	return handler.LastSyncResourceVersion()
}

func (r *Repository[T]) SimpleResourceName() string {
	return r.kind.Kind
}

func (r *Repository[T]) Kind() resource.Kind {
	return r.kind
}

// SanitizeName turns raw into a valid object name for this kind.
func (r *Repository[T]) SanitizeName(raw string) string {
	return resource.SanitizeNameToDNS1123(raw, r.kind.ShortName())
}

// AddEventHandler registers handler for changes of the cache.
func (r *Repository[T]) AddEventHandler(handler resource.ResHandler[T]) error {
	h, err := r.Handler()
	if err != nil {
		return err
	}
	return h.AddEventHandler(handler)
}

// stampNamespace sets namespace on obj. An empty namespace keeps the
// one obj carries.
func (r *Repository[T]) stampNamespace(obj T, namespace string) string {
	if len(namespace) == 0 {
		namespace = obj.GetNamespace()
	}
	if len(namespace) == 0 && r.kind.Namespaced {
		namespace = defaultNamespace
	}
	obj.SetNamespace(namespace)
	return namespace
}
