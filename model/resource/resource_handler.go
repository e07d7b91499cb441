package resource

// ResHandler reacts to changes of the local cache. Callbacks run on the
// watch delivery goroutine, in the order the remote store emitted the
// events, and must not block.
type ResHandler[T Object] interface {
	AddResource(res T)
	UpdateResource(old, res T)
	DeleteResource(res T)
}

// ResHandlerFuncs adapts plain functions to ResHandler. Nil funcs are
// skipped.
type ResHandlerFuncs[T Object] struct {
	AddFunc    func(res T)
	UpdateFunc func(old, res T)
	DeleteFunc func(res T)
}

func (f ResHandlerFuncs[T]) AddResource(res T) {
	if f.AddFunc != nil {
		f.AddFunc(res)
	}
}

func (f ResHandlerFuncs[T]) UpdateResource(old, res T) {
	if f.UpdateFunc != nil {
		f.UpdateFunc(old, res)
	}
}

func (f ResHandlerFuncs[T]) DeleteResource(res T) {
	if f.DeleteFunc != nil {
		f.DeleteFunc(res)
	}
}

type Exporter interface {
	ExportResourceEvents(event *ResourceEvent)
}
