package apiserver

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/tools/cache"
	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/model/resource"
)

// ResourceHandler binds one kind to its informer cache and coordinator.
// Reads are served from the cache once it is synced and watching. Writes
// go to the remote store; the cache catches up through the watch.
type ResourceHandler[T resource.Object] struct {
	kind      resource.Kind
	newObject func() T

	store       RemoteStore
	sub         *InformerSubscription
	coordinator *Coordinator
	metrics     *Metrics
}

func NewResourceHandler[T resource.Object](conn *Connection, kind resource.Kind, newObject func() T) *ResourceHandler[T] {
	store := conn.Store(kind)
	namespace := conn.config.Namespace
	if !kind.Namespaced {
		namespace = ""
	}
	sub := NewInformerSubscription(kind.Kind, store, namespace, conn.config.ResyncPeriod)

	h := &ResourceHandler[T]{
		kind:        kind,
		newObject:   newObject,
		store:       store,
		sub:         sub,
		coordinator: NewCoordinator(kind.Kind, sub, conn.pool, conn.coordinatorOptions()),
		metrics:     conn.metrics,
	}
	if conn.metrics != nil {
		_, _ = sub.Informer().AddEventHandler(cache.ResourceEventHandlerFuncs{
			AddFunc:    func(interface{}) { h.metrics.incCacheEvent(kind.Kind, resource.AddOP) },
			UpdateFunc: func(_, _ interface{}) { h.metrics.incCacheEvent(kind.Kind, resource.UpdateOP) },
			DeleteFunc: func(interface{}) { h.metrics.incCacheEvent(kind.Kind, resource.DeleteOP) },
		})
	}
	return h
}

func (h *ResourceHandler[T]) Kind() resource.Kind {
	return h.kind
}

func (h *ResourceHandler[T]) Start() {
	h.coordinator.Start()
}

func (h *ResourceHandler[T]) WaitForSync(ctx context.Context) error {
	return h.coordinator.WaitForSync(ctx)
}

func (h *ResourceHandler[T]) WaitForWatch(ctx context.Context) error {
	return h.coordinator.WaitForWatch(ctx)
}

func (h *ResourceHandler[T]) IsHealthy() bool {
	return h.coordinator.IsHealthy()
}

func (h *ResourceHandler[T]) LastSyncResourceVersion() string {
	return h.sub.LastSyncResourceVersion()
}

// ReportWatchLost marks the watch as down, e.g. when a collaborator saw
// the connection to the remote store drop.
func (h *ResourceHandler[T]) ReportWatchLost() {
	h.sub.ReportWatchLost()
}

func (h *ResourceHandler[T]) AddWatchErrorListener(listener func(err error)) {
	h.sub.AddWatchErrorListener(listener)
}

// ensureReady starts the informer if needed and waits for sync and watch.
func (h *ResourceHandler[T]) ensureReady(ctx context.Context) error {
	h.coordinator.Start()
	if err := h.coordinator.WaitForSync(ctx); err != nil {
		return err
	}
	return h.coordinator.WaitForWatch(ctx)
}

// GetByName returns the cached object. The boolean is false if the
// cache holds no such object.
func (h *ResourceHandler[T]) GetByName(ctx context.Context, name, namespace string) (T, bool, error) {
	var zero T
	if err := h.ensureReady(ctx); err != nil {
		return zero, false, err
	}
	item, exists, err := h.sub.Informer().GetIndexer().GetByKey(resource.Key(h.namespaceFor(namespace), name))
	if err != nil || !exists {
		return zero, false, err
	}
	obj, err := resource.FromUnstructured(item.(*unstructured.Unstructured), h.newObject)
	if err != nil {
		return zero, false, err
	}
	return obj, true, nil
}

// List returns copies of the cached objects in namespace, all namespaces
// if it is empty, sorted by key.
func (h *ResourceHandler[T]) List(ctx context.Context, namespace string) ([]T, error) {
	if err := h.ensureReady(ctx); err != nil {
		return nil, err
	}

	var items []*unstructured.Unstructured
	appendFn := func(m interface{}) {
		items = append(items, m.(*unstructured.Unstructured))
	}
	indexer := h.sub.Informer().GetIndexer()
	var err error
	if len(namespace) == 0 || !h.kind.Namespaced {
		err = cache.ListAll(indexer, labels.Everything(), appendFn)
	} else {
		err = cache.ListAllByNamespace(indexer, namespace, labels.Everything(), appendFn)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return resource.KeyOf(items[i]) < resource.KeyOf(items[j])
	})
	result := make([]T, 0, len(items))
	for _, item := range items {
		obj, err := resource.FromUnstructured(item, h.newObject)
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	return result, nil
}

// Create creates obj in namespace on the remote store.
func (h *ResourceHandler[T]) Create(ctx context.Context, namespace string, obj T) (T, error) {
	ns, u, err := h.encode(namespace, obj)
	if err != nil {
		var zero T
		return zero, err
	}
	out, err := h.store.Create(ctx, ns, u)
	if err != nil {
		var zero T
		return zero, h.remoteError("create", ns, u.GetName(), err)
	}
	return resource.FromUnstructured(out, h.newObject)
}

// CreateOrReplace creates obj, or replaces the live object if one with
// the same name already exists.
func (h *ResourceHandler[T]) CreateOrReplace(ctx context.Context, namespace string, obj T) (T, error) {
	var zero T
	ns, u, err := h.encode(namespace, obj)
	if err != nil {
		return zero, err
	}
	out, err := h.store.Create(ctx, ns, u)
	if apierrors.IsAlreadyExists(err) {
		return h.replace(ctx, ns, u, true)
	}
	if err != nil {
		return zero, h.remoteError("create", ns, u.GetName(), err)
	}
	return resource.FromUnstructured(out, h.newObject)
}

// Replace replaces an existing object. Without a resource version on obj
// the live one is used.
func (h *ResourceHandler[T]) Replace(ctx context.Context, namespace string, obj T) (T, error) {
	ns, u, err := h.encode(namespace, obj)
	if err != nil {
		var zero T
		return zero, err
	}
	return h.replace(ctx, ns, u, len(u.GetResourceVersion()) == 0)
}

func (h *ResourceHandler[T]) replace(ctx context.Context, ns string, u *unstructured.Unstructured, fetchVersion bool) (T, error) {
	var zero T
	if fetchVersion {
		live, err := h.store.Get(ctx, ns, u.GetName())
		if err != nil {
			return zero, h.remoteError("get", ns, u.GetName(), err)
		}
		u.SetResourceVersion(live.GetResourceVersion())
	}
	out, err := h.store.Replace(ctx, ns, u)
	if err != nil {
		return zero, h.remoteError("replace", ns, u.GetName(), err)
	}
	return resource.FromUnstructured(out, h.newObject)
}

// Delete deletes the named object on the remote store. It returns false
// if the remote store does not have it.
func (h *ResourceHandler[T]) Delete(ctx context.Context, namespace, name string) (bool, error) {
	ns := h.namespaceFor(namespace)
	err := h.store.Delete(ctx, ns, name)
	if apierrors.IsNotFound(err) {
		klog.V(2).InfoS("Resource already gone", "kind", h.kind.Kind, "namespace", ns, "name", name)
		return false, nil
	}
	if err != nil {
		return false, h.remoteError("delete", ns, name, err)
	}
	return true, nil
}

// AddEventHandler registers handler for changes of the cache.
func (h *ResourceHandler[T]) AddEventHandler(handler resource.ResHandler[T]) error {
	_, err := h.sub.Informer().AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			if res, ok := h.decode(obj); ok {
				handler.AddResource(res)
			}
		},
		UpdateFunc: func(oldObj, newObj interface{}) {
			old, ok := h.decode(oldObj)
			if !ok {
				return
			}
			if res, ok := h.decode(newObj); ok {
				handler.UpdateResource(old, res)
			}
		},
		DeleteFunc: func(obj interface{}) {
			if tombstone, ok := obj.(cache.DeletedFinalStateUnknown); ok {
				obj = tombstone.Obj
			}
			if res, ok := h.decode(obj); ok {
				handler.DeleteResource(res)
			}
		},
	})
	return err
}

func (h *ResourceHandler[T]) decode(obj interface{}) (T, bool) {
	var zero T
	u, ok := obj.(*unstructured.Unstructured)
	if !ok {
		klog.ErrorS(nil, "Unexpected object in cache", "kind", h.kind.Kind, "type", fmt.Sprintf("%T", obj))
		return zero, false
	}
	res, err := resource.FromUnstructured(u, h.newObject)
	if err != nil {
		klog.ErrorS(err, "Failed to decode cached object", "kind", h.kind.Kind)
		return zero, false
	}
	return res, true
}

func (h *ResourceHandler[T]) encode(namespace string, obj T) (string, *unstructured.Unstructured, error) {
	ns := h.namespaceFor(namespace)
	obj.SetNamespace(ns)
	u, err := resource.ToUnstructured(obj, h.kind)
	return ns, u, err
}

// namespaceFor defaults writes and lookups of namespaced kinds to the
// default namespace.
func (h *ResourceHandler[T]) namespaceFor(namespace string) string {
	if !h.kind.Namespaced {
		return ""
	}
	if len(namespace) == 0 {
		return corev1.NamespaceDefault
	}
	return namespace
}

func (h *ResourceHandler[T]) remoteError(op, namespace, name string, err error) error {
	h.metrics.incRemoteError(h.kind.Kind, op)
	wrapped := &resource.RemoteStoreError{
		Op:        op,
		Kind:      h.kind.Kind,
		Namespace: namespace,
		Name:      name,
		Err:       err,
	}
	klog.ErrorS(err, "Remote store call failed", "op", op, "kind", h.kind.Kind, "namespace", namespace, "name", name)
	return wrapped
}
