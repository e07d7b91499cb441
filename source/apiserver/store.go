package apiserver

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
)

// RemoteStore is what the cache and the write path need from the remote
// resource store, for a single kind.
type RemoteStore interface {
	List(ctx context.Context, namespace string, opts metav1.ListOptions) (*unstructured.UnstructuredList, error)
	Watch(ctx context.Context, namespace string, opts metav1.ListOptions) (watch.Interface, error)
	Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error)
	Create(ctx context.Context, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	Replace(ctx context.Context, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	Delete(ctx context.Context, namespace, name string) error
}

// dynamicStore implements RemoteStore with the Kubernetes dynamic client.
type dynamicStore struct {
	client dynamic.Interface
	gvr    schema.GroupVersionResource
}

func NewRemoteStore(client dynamic.Interface, gvr schema.GroupVersionResource) RemoteStore {
	return &dynamicStore{
		client: client,
		gvr:    gvr,
	}
}

var _ RemoteStore = (*dynamicStore)(nil)

func (s *dynamicStore) List(ctx context.Context, namespace string, opts metav1.ListOptions) (*unstructured.UnstructuredList, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).List(ctx, opts)
}

func (s *dynamicStore) Watch(ctx context.Context, namespace string, opts metav1.ListOptions) (watch.Interface, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).Watch(ctx, opts)
}

func (s *dynamicStore) Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
}

func (s *dynamicStore) Create(ctx context.Context, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).Create(ctx, obj, metav1.CreateOptions{})
}

func (s *dynamicStore) Replace(ctx context.Context, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).Update(ctx, obj, metav1.UpdateOptions{})
}

func (s *dynamicStore) Delete(ctx context.Context, namespace, name string) error {
	return s.client.Resource(s.gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
}
