package resource

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// Object is a typed resource: identity (name, namespace, resourceVersion)
// through metav1.Object plus a kind specific payload.
type Object interface {
	metav1.Object
	runtime.Object
}

// Key returns the cache key of a resource, "namespace/name" or just
// "name" for cluster scoped objects.
func Key(namespace, name string) string {
	if len(namespace) == 0 {
		return name
	}
	return namespace + "/" + name
}

// KeyOf returns the cache key of obj.
func KeyOf(obj metav1.Object) string {
	return Key(obj.GetNamespace(), obj.GetName())
}
