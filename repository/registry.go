package repository

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vamseeds/k8sedit/model/resource"
	"github.com/vamseeds/k8sedit/source/apiserver"
)

// Status is the kind independent view of a repository.
type Status interface {
	SimpleResourceName() string
	IsHealthy() bool
	IsReady() bool
	LastSync() string
}

// Registry holds one repository per kind, keyed by the plural resource
// name.
type Registry struct {
	repos map[string]Status

	sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{repos: map[string]Status{}}
}

func (r *Registry) Get(kind string) (Status, bool) {
	r.RLock()
	defer r.RUnlock()
	repo, find := r.repos[kind]
	return repo, find
}

// Statuses returns all repositories ordered by kind.
func (r *Registry) Statuses() []Status {
	r.RLock()
	defer r.RUnlock()
	kinds := make([]string, 0, len(r.repos))
	for kind := range r.repos {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	statuses := make([]Status, 0, len(kinds))
	for _, kind := range kinds {
		statuses = append(statuses, r.repos[kind])
	}
	return statuses
}

// Healthy reports whether every registered repository is healthy.
// An empty registry is not healthy.
func (r *Registry) Healthy() bool {
	statuses := r.Statuses()
	if len(statuses) == 0 {
		return false
	}
	for _, status := range statuses {
		if !status.IsHealthy() {
			return false
		}
	}
	return true
}

// Ready reports whether every registered repository is ready.
func (r *Registry) Ready() bool {
	statuses := r.Statuses()
	if len(statuses) == 0 {
		return false
	}
	for _, status := range statuses {
		if !status.IsReady() {
			return false
		}
	}
	return true
}

// Register returns the repository of kind in reg, creating and starting
// it on first use.
func Register[T resource.Object](reg *Registry, conn *apiserver.Connection, kind resource.Kind, newObject func() T, opts ...Option[T]) (*Repository[T], error) {
	reg.Lock()
	defer reg.Unlock()
	if existing, find := reg.repos[kind.Plural]; find {
		repo, ok := existing.(*Repository[T])
		if !ok {
			return nil, fmt.Errorf("kind %s is registered with type %T", kind.Plural, existing)
		}
		return repo, nil
	}

	repo, err := New(conn, kind, newObject, opts...)
	if err != nil {
		return nil, err
	}
	handler, err := repo.Handler()
	if err != nil {
		return nil, err
	}
	repo.startSyncIfNeeded(handler)
	reg.repos[kind.Plural] = repo
	return repo, nil
}
