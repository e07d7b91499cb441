package apiserver

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/client-go/dynamic"

	"github.com/vamseeds/k8sedit/model/resource"
)

const DefaultResyncPeriod = time.Hour

type InformerConfig struct {
	// Namespace limits every informer to one namespace, empty for all.
	Namespace    string
	ResyncPeriod time.Duration
	PollInterval time.Duration
	SyncTimeout  time.Duration
}

// Connection is the client to the remote store together with the pool
// every coordinator built on it runs on.
type Connection struct {
	client        dynamic.Interface
	pool          *Pool
	config        InformerConfig
	failureAction FailureAction
	metrics       *Metrics
}

type ConnectionOption func(*Connection)

func WithPool(pool *Pool) ConnectionOption {
	return func(c *Connection) {
		c.pool = pool
	}
}

func WithInformerConfig(cfg InformerConfig) ConnectionOption {
	return func(c *Connection) {
		c.config = cfg
	}
}

func WithFailureAction(action FailureAction) ConnectionOption {
	return func(c *Connection) {
		c.failureAction = action
	}
}

func WithMetrics(metrics *Metrics) ConnectionOption {
	return func(c *Connection) {
		c.metrics = metrics
	}
}

func NewConnection(client dynamic.Interface, opts ...ConnectionOption) *Connection {
	c := &Connection{
		client:        client,
		failureAction: ExitOnFailure,
		config:        InformerConfig{ResyncPeriod: DefaultResyncPeriod},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		c.pool = NewPool(context.Background())
	}
	return c
}

// Store returns the remote store of kind.
func (c *Connection) Store(kind resource.Kind) RemoteStore {
	return NewRemoteStore(c.client, kind.GVR())
}

func (c *Connection) Pool() *Pool {
	return c.pool
}

func (c *Connection) Metrics() *Metrics {
	return c.metrics
}

func (c *Connection) coordinatorOptions() CoordinatorOptions {
	return CoordinatorOptions{
		PollInterval:  c.config.PollInterval,
		Timeout:       c.config.SyncTimeout,
		FailureAction: c.failureAction,
		Metrics:       c.metrics,
	}
}

// Close stops every informer running on the connection's pool.
func (c *Connection) Close() error {
	return c.pool.Shutdown()
}

var defaultMetrics = sync.OnceValue(func() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
})

var (
	sharedMux          sync.Mutex
	sharedConnection   *Connection
	clientFactory      = NewClientFactory(APIConfig{AuthType: AuthTypeKubeConfig})
	connectionSupplier = defaultConnectionSupplier
)

func defaultConnectionSupplier() (*Connection, error) {
	client, err := clientFactory()
	if err != nil {
		return nil, err
	}
	return NewConnection(client, WithMetrics(defaultMetrics())), nil
}

// SharedConnection returns the process wide connection, building it on
// first use.
func SharedConnection() (*Connection, error) {
	sharedMux.Lock()
	defer sharedMux.Unlock()
	if sharedConnection != nil {
		return sharedConnection, nil
	}
	conn, err := connectionSupplier()
	if err != nil {
		return nil, err
	}
	sharedConnection = conn
	return conn, nil
}

// SetConnectionSupplier drops the shared connection and builds the next
// one with supplier. Meant for tests and process setup; informers already
// running on the old connection are not stopped.
func SetConnectionSupplier(supplier func() (*Connection, error)) {
	sharedMux.Lock()
	defer sharedMux.Unlock()
	sharedConnection = nil
	if supplier == nil {
		supplier = defaultConnectionSupplier
	}
	connectionSupplier = supplier
}

// SetClientFactory drops the shared connection and makes the default
// supplier build its client with factory.
func SetClientFactory(factory ClientFactory) {
	sharedMux.Lock()
	defer sharedMux.Unlock()
	sharedConnection = nil
	clientFactory = factory
}
