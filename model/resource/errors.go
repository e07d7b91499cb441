package resource

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned where an absent resource has to be reported
// as an error. Lookups report absence with a boolean instead.
var ErrNotFound = errors.New("resource not found")

var (
	ErrSyncTimeout  = errors.New("cache sync timed out")
	ErrWatchTimeout = errors.New("watch establishment timed out")
)

type Phase string

const (
	PhaseSync  Phase = "sync"
	PhaseWatch Phase = "watch"
)

// TimeoutError reports that a bounded wait did not observe readiness.
type TimeoutError struct {
	Kind    string
	Phase   Phase
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Phase == PhaseWatch {
		return fmt.Sprintf("waited %s for %s informer to establish watch", e.Timeout, e.Kind)
	}
	return fmt.Sprintf("waited %s for %s informer to synchronize", e.Timeout, e.Kind)
}

// Is matches ErrSyncTimeout or ErrWatchTimeout depending on the phase.
func (e *TimeoutError) Is(target error) bool {
	switch target {
	case ErrSyncTimeout:
		return e.Phase == PhaseSync
	case ErrWatchTimeout:
		return e.Phase == PhaseWatch
	}
	return false
}

// RemoteStoreError wraps any failure of a call against the remote store.
type RemoteStoreError struct {
	Op        string
	Kind      string
	Namespace string
	Name      string
	Err       error
}

func (e *RemoteStoreError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Kind, Key(e.Namespace, e.Name), e.Err)
}

func (e *RemoteStoreError) Unwrap() error {
	return e.Err
}

// InitializationError indicates that a component was built before a
// dependency it requires.
type InitializationError struct {
	Component  string
	Dependency string
	// Err is the failure of the dependency itself, if any.
	Err error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s requires %s to be initialized first: %v", e.Component, e.Dependency, e.Err)
	}
	return fmt.Sprintf("%s requires %s to be initialized first", e.Component, e.Dependency)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
