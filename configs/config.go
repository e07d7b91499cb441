package configs

import "time"

type K8sEditConfig struct {
	HttpServer *HTTPServerConfig `json:"http_server" mapstructure:"http_server"`
	KubeSource *KubeSourceConfig `json:"kube_source" mapstructure:"kube_source"`
	Informer   *InformerConfig   `json:"informer" mapstructure:"informer"`

	Exporter *ExporterConfig `json:"exporter" mapstructure:"exporter"`
	Querier  *QuerierConfig  `json:"querier" mapstructure:"querier"`
}

type KubeSourceConfig struct {
	// serviceAccount or kubeConfig
	KubeAuthType   string `json:"kube_auth_type" mapstructure:"kube_auth_type"`
	KubeAuthConfig string `json:"kube_auth_config" mapstructure:"kube_auth_config"`

	// Namespace to watch, empty for all
	Namespace string `json:"namespace" mapstructure:"namespace"`
}

type InformerConfig struct {
	PollInterval time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
	SyncTimeout  time.Duration `json:"sync_timeout" mapstructure:"sync_timeout"`
	ResyncPeriod time.Duration `json:"resync_period" mapstructure:"resync_period"`

	// exit or continue
	FailurePolicy string `json:"failure_policy" mapstructure:"failure_policy"`
}

type ExporterConfig struct {
	EnableEventStream bool `json:"enable_event_stream" mapstructure:"enable_event_stream"`
	DedupeCacheSize   int  `json:"dedupe_cache_size" mapstructure:"dedupe_cache_size"`
}

type QuerierConfig struct {
	EnableQueryServer bool `json:"enable_query_server" mapstructure:"enable_query_server"`
}

type HTTPServerConfig struct {
	Port int `json:"port" mapstructure:"port"`
}
