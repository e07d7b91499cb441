package resource

type ResOperation int

const (
	AddOP    ResOperation = 0
	UpdateOP ResOperation = 1
	DeleteOP ResOperation = 2

	// ResetOP carries a full snapshot of a kind, sent once to every new
	// event stream subscriber.
	ResetOP ResOperation = 3
)

func (op ResOperation) String() string {
	switch op {
	case AddOP:
		return "ADDED"
	case UpdateOP:
		return "MODIFIED"
	case DeleteOP:
		return "DELETED"
	case ResetOP:
		return "RESET"
	}
	return "UNKNOWN"
}

type ResourceEvent struct {
	// Kind is the plural resource name, e.g. "apis"
	Kind string `json:"kind"`

	Res       []Object     `json:"res"`
	Operation ResOperation `json:"operation"`
}

// FetchRequest is the first message a client sends on the event stream.
type FetchRequest struct {
	// Kinds to subscribe to, empty means all
	Kinds []string `json:"kinds"`
	// Namespaces to subscribe to, empty means all
	Namespaces []string `json:"namespaces"`
}

type SyncRequest struct {
	Events []*ResourceEvent `json:"events"`
}
