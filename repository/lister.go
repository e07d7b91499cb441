package repository

import (
	"context"

	"github.com/vamseeds/k8sedit/model/cache"
	"github.com/vamseeds/k8sedit/model/resource"
)

// Lister exposes the read side of r to kind independent callers.
func (r *Repository[T]) Lister() cache.Lister {
	return repositoryLister[T]{repo: r}
}

// Snapshot returns every cached object of the kind.
func (r *Repository[T]) Snapshot(ctx context.Context) ([]resource.Object, error) {
	return r.Lister().List(ctx, "")
}

type repositoryLister[T resource.Object] struct {
	repo *Repository[T]
}

func (l repositoryLister[T]) Get(ctx context.Context, name, namespace string) (resource.Object, bool, error) {
	obj, found, err := l.repo.GetResourceInNamespace(ctx, name, namespace)
	if err != nil || !found {
		return nil, false, err
	}
	return obj, true, nil
}

func (l repositoryLister[T]) List(ctx context.Context, namespace string) ([]resource.Object, error) {
	var (
		items []T
		err   error
	)
	if len(namespace) == 0 {
		items, err = l.repo.GetResourcesInAllNamespaces(ctx)
	} else {
		items, err = l.repo.GetResourcesInNamespace(ctx, namespace)
	}
	if err != nil {
		return nil, err
	}
	objects := make([]resource.Object, 0, len(items))
	for _, item := range items {
		objects = append(objects, item)
	}
	return objects, nil
}
