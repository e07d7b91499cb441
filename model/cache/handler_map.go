package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/vamseeds/k8sedit/model/resource"
)

// Lister is the kind independent read side of a cache.
type Lister interface {
	Get(ctx context.Context, name, namespace string) (resource.Object, bool, error)
	// List lists namespace, or every namespace if it is empty.
	List(ctx context.Context, namespace string) ([]resource.Object, error)
}

type ListerMap struct {
	Listers map[string]Lister

	sync.RWMutex
}

func NewListerMap() *ListerMap {
	return &ListerMap{Listers: map[string]Lister{}}
}

func (m *ListerMap) GetLister(kind string) (Lister, bool) {
	m.RLock()
	defer m.RUnlock()
	lister, find := m.Listers[kind]
	return lister, find
}

func (m *ListerMap) AddLister(kind string, lister Lister) {
	m.Lock()
	defer m.Unlock()
	m.Listers[kind] = lister
}

func (m *ListerMap) Kinds() []string {
	m.RLock()
	defer m.RUnlock()
	kinds := make([]string, 0, len(m.Listers))
	for kind := range m.Listers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
