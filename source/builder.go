package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"k8s.io/klog/v2"

	apiv1 "github.com/vamseeds/k8sedit/api/v1"
	"github.com/vamseeds/k8sedit/configs"
	"github.com/vamseeds/k8sedit/export"
	"github.com/vamseeds/k8sedit/model/cache"
	"github.com/vamseeds/k8sedit/model/resource"
	"github.com/vamseeds/k8sedit/repository"
	"github.com/vamseeds/k8sedit/server"
	"github.com/vamseeds/k8sedit/source/apiserver"
)

type MetaSource interface {
	Run() error
	Stop() error

	// Handlers are the endpoints the source serves on the http server
	Handlers() map[string]http.HandlerFunc
}

// KubeSource keeps the API cache in sync with the cluster and serves
// it over http.
type KubeSource struct {
	config *configs.K8sEditConfig

	conn     *apiserver.Connection
	registry *repository.Registry
	apis     *repository.APIs
	gatherer prometheus.Gatherer

	listers     *cache.ListerMap
	fetchServer *export.FetcherServer
	exporter    *export.Exporter
	httpServer  *server.HTTPServer
}

var _ MetaSource = &KubeSource{}

// BuildKubeSource connects to the cluster described by config and makes
// the result the process wide connection and API repository.
func BuildKubeSource(config *configs.K8sEditConfig) (*KubeSource, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts, err := ConnectionOptions(config, reg)
	if err != nil {
		return nil, err
	}
	clientFactory := apiserver.NewClientFactory(apiserver.APIConfig{
		AuthType:     apiserver.AuthType(config.KubeSource.KubeAuthType),
		AuthFilePath: config.KubeSource.KubeAuthConfig,
	})
	apiserver.SetConnectionSupplier(func() (*apiserver.Connection, error) {
		client, err := clientFactory()
		if err != nil {
			return nil, err
		}
		return apiserver.NewConnection(client, opts...), nil
	})
	conn, err := apiserver.SharedConnection()
	if err != nil {
		return nil, &resource.InitializationError{Component: "kube source", Dependency: "shared connection", Err: err}
	}

	source, err := NewKubeSource(config, conn, reg)
	if err != nil {
		return nil, err
	}
	repository.SetAPIsSupplier(func() (*repository.APIs, error) {
		return source.apis, nil
	})
	return source, nil
}

// ConnectionOptions maps the informer settings of config onto a
// connection. Metrics are registered on reg.
func ConnectionOptions(config *configs.K8sEditConfig, reg prometheus.Registerer) ([]apiserver.ConnectionOption, error) {
	informer := apiserver.InformerConfig{ResyncPeriod: apiserver.DefaultResyncPeriod}
	policy := ""
	if config.KubeSource != nil {
		informer.Namespace = config.KubeSource.Namespace
	}
	if config.Informer != nil {
		informer.PollInterval = config.Informer.PollInterval
		informer.SyncTimeout = config.Informer.SyncTimeout
		if config.Informer.ResyncPeriod > 0 {
			informer.ResyncPeriod = config.Informer.ResyncPeriod
		}
		policy = config.Informer.FailurePolicy
	}
	failureAction, err := apiserver.FailureActionFor(policy)
	if err != nil {
		return nil, err
	}
	return []apiserver.ConnectionOption{
		apiserver.WithInformerConfig(informer),
		apiserver.WithFailureAction(failureAction),
		apiserver.WithMetrics(apiserver.NewMetrics(reg)),
	}, nil
}

// NewKubeSource registers the API repository on conn, which starts its
// sync, and wires the query server and event stream onto it.
func NewKubeSource(config *configs.K8sEditConfig, conn *apiserver.Connection, gatherer prometheus.Gatherer) (*KubeSource, error) {
	var httpServer *server.HTTPServer
	if config.HttpServer != nil && config.HttpServer.Port > 0 {
		httpServer = server.NewHTTPServer(fmt.Sprintf(":%d", config.HttpServer.Port))
	} else {
		httpServer = server.NewHTTPServer("")
	}

	s := &KubeSource{
		config:     config,
		conn:       conn,
		registry:   repository.NewRegistry(),
		gatherer:   gatherer,
		listers:    cache.NewListerMap(),
		exporter:   &export.Exporter{},
		httpServer: httpServer,
	}

	apis, err := repository.Register(s.registry, conn, apiv1.Kind, apiv1.New)
	if err != nil {
		return nil, err
	}
	s.apis = apis
	s.listers.AddLister(apiv1.Kind.Plural, apis.Lister())

	if config.Exporter != nil && config.Exporter.EnableEventStream {
		s.fetchServer = export.NewFetcherServer()
		s.fetchServer.SetupSnapshot(apiv1.Kind.Plural, apis.Snapshot)
		s.exporter.Exporters = append(s.exporter.Exporters, s.fetchServer)

		apiExporter, err := export.NewResourceExporter[*apiv1.API](apiv1.Kind.Plural, s.exporter, config.Exporter.DedupeCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create api exporter: %w", err)
		}
		if err := apis.AddEventHandler(apiExporter); err != nil {
			return nil, err
		}
	}

	for path, handler := range s.Handlers() {
		httpServer.RegisterHandler(path, handler)
	}
	return s, nil
}

func (s *KubeSource) Handlers() map[string]http.HandlerFunc {
	handlers := map[string]http.HandlerFunc{
		"/healthz": server.HealthzHandler(s.registry),
		"/readyz":  server.ReadyzHandler(s.registry),
	}
	if s.gatherer != nil {
		handlers["/metrics"] = server.MetricsHandler(s.gatherer)
	}
	if s.config.Querier != nil && s.config.Querier.EnableQueryServer {
		handlers["/query"] = cache.NewQuery(s.listers).QueryResource
	}
	if s.fetchServer != nil {
		handlers["/events"] = s.fetchServer.FetchWithWS
	}
	return handlers
}

// Run starts the http server. The caches are already syncing.
func (s *KubeSource) Run() error {
	return s.httpServer.StartHttpServer()
}

// WaitForSync blocks until the API cache holds the full remote state.
func (s *KubeSource) WaitForSync(ctx context.Context) error {
	select {
	case err := <-s.apis.StartSync():
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *KubeSource) Stop() error {
	var errs []error
	if err := s.httpServer.Stop(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("stop http server: %w", err))
	}
	if s.fetchServer != nil {
		s.fetchServer.Stop()
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("stop informers: %w", err))
	}
	klog.InfoS("Kube source stopped")
	return errors.Join(errs...)
}

func (s *KubeSource) APIs() *repository.APIs {
	return s.apis
}

func (s *KubeSource) Registry() *repository.Registry {
	return s.registry
}

func (s *KubeSource) HTTPServer() *server.HTTPServer {
	return s.httpServer
}
