package export

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vamseeds/k8sedit/model/resource"
)

var NonExporter = &Exporter{}

// Exporter fans events out to every configured exporter.
type Exporter struct {
	Exporters []resource.Exporter
}

func (e *Exporter) ExportResourceEvents(event *resource.ResourceEvent) {
	for _, exporter := range e.Exporters {
		exporter.ExportResourceEvents(event)
	}
}

// ResourceExporter turns cache changes of one kind into resource events.
// Updates that carry a resource version already exported for the same
// object, as periodic resyncs do, are dropped.
type ResourceExporter[T resource.Object] struct {
	kind     string
	exporter resource.Exporter

	exported *lru.Cache[string, string]
}

var _ resource.ResHandler[resource.Object] = &ResourceExporter[resource.Object]{}

// NewResourceExporter remembers the resource versions of up to
// dedupeSize objects.
func NewResourceExporter[T resource.Object](kind string, exporter resource.Exporter, dedupeSize int) (*ResourceExporter[T], error) {
	exported, err := lru.New[string, string](dedupeSize)
	if err != nil {
		return nil, err
	}
	return &ResourceExporter[T]{
		kind:     kind,
		exporter: exporter,
		exported: exported,
	}, nil
}

func (e *ResourceExporter[T]) AddResource(res T) {
	e.remember(res)
	e.export(resource.AddOP, res)
}

func (e *ResourceExporter[T]) UpdateResource(_, res T) {
	if version := res.GetResourceVersion(); len(version) > 0 {
		if last, find := e.exported.Get(resource.KeyOf(res)); find && last == version {
			return
		}
	}
	e.remember(res)
	e.export(resource.UpdateOP, res)
}

func (e *ResourceExporter[T]) DeleteResource(res T) {
	e.exported.Remove(resource.KeyOf(res))
	e.export(resource.DeleteOP, res)
}

func (e *ResourceExporter[T]) remember(res T) {
	if version := res.GetResourceVersion(); len(version) > 0 {
		e.exported.Add(resource.KeyOf(res), version)
	}
}

func (e *ResourceExporter[T]) export(op resource.ResOperation, res T) {
	e.exporter.ExportResourceEvents(&resource.ResourceEvent{
		Kind:      e.kind,
		Res:       []resource.Object{res},
		Operation: op,
	})
}
