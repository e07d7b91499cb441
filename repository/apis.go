package repository

import (
	"sync"

	apiv1 "github.com/vamseeds/k8sedit/api/v1"
	"github.com/vamseeds/k8sedit/model/resource"
	"github.com/vamseeds/k8sedit/source/apiserver"
)

// APIs is the repository of the API kind.
type APIs = Repository[*apiv1.API]

func NewAPIs(conn *apiserver.Connection, opts ...Option[*apiv1.API]) (*APIs, error) {
	return New(conn, apiv1.Kind, apiv1.New, opts...)
}

var (
	apisMux      sync.Mutex
	apisInstance *APIs
	apisSupplier = defaultAPIsSupplier
)

func defaultAPIsSupplier() (*APIs, error) {
	conn, err := apiserver.SharedConnection()
	if err != nil {
		return nil, &resource.InitializationError{
			Component:  "API repository",
			Dependency: "shared connection",
			Err:        err,
		}
	}
	return NewAPIs(conn)
}

// APIsInstance returns the process wide API repository. The first call
// builds it and starts its sync.
func APIsInstance() (*APIs, error) {
	apisMux.Lock()
	defer apisMux.Unlock()
	if apisInstance != nil {
		return apisInstance, nil
	}

	apis, err := apisSupplier()
	if err != nil {
		return nil, err
	}
	handler, err := apis.Handler()
	if err != nil {
		return nil, err
	}
	apis.startSyncIfNeeded(handler)
	apisInstance = apis
	return apis, nil
}

// SetAPIsSupplier drops the process wide API repository; the next
// APIsInstance call builds one with supplier. A nil supplier restores
// the default. Meant for tests.
func SetAPIsSupplier(supplier func() (*APIs, error)) {
	apisMux.Lock()
	defer apisMux.Unlock()
	apisInstance = nil
	if supplier == nil {
		supplier = defaultAPIsSupplier
	}
	apisSupplier = supplier
}
