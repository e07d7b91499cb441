package resource

import (
	"sync"
	"unicode"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Kind identifies a resource kind on the remote store.
type Kind struct {
	Group    string
	Version  string
	Kind     string
	Plural   string
	Singular string

	// Namespaced is false for cluster scoped kinds.
	Namespaced bool
}

func (k Kind) GVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: k.Group, Version: k.Version, Resource: k.Plural}
}

func (k Kind) GVK() schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: k.Group, Version: k.Version, Kind: k.Kind}
}

// ListKind is the kind name of the list type, e.g. "APIList".
func (k Kind) ListKind() string {
	return k.Kind + "List"
}

func (k Kind) APIVersion() string {
	return k.GVK().GroupVersion().String()
}

// ShortName is built from the upper-case letters of the kind,
// lower-cased: "API" -> "api", "ConfigMap" -> "cm".
func (k Kind) ShortName() string {
	short := make([]rune, 0, len(k.Kind))
	for _, c := range k.Kind {
		if unicode.IsUpper(c) {
			short = append(short, unicode.ToLower(c))
		}
	}
	return string(short)
}

func (k Kind) String() string {
	return k.GVR().String()
}

// NewFunc returns an empty typed object of a registered kind.
type NewFunc func() Object

type registration struct {
	kind Kind
	new  NewFunc
}

var (
	kindsMux sync.RWMutex
	kinds    = map[schema.GroupVersionKind]registration{}
)

// RegisterKind maps a kind identifier to its in-memory type. It must be
// called before any list or watch for a custom kind.
func RegisterKind(kind Kind, newFunc NewFunc) {
	kindsMux.Lock()
	defer kindsMux.Unlock()
	kinds[kind.GVK()] = registration{kind: kind, new: newFunc}
}

// LookupKind returns the registration of gvk.
func LookupKind(gvk schema.GroupVersionKind) (Kind, NewFunc, bool) {
	kindsMux.RLock()
	defer kindsMux.RUnlock()
	reg, find := kinds[gvk]
	return reg.kind, reg.new, find
}
