package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "K8SEDIT"

type ConfigOption struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

const (
	KeyHTTPServerPort = "http_server.port"

	KeyKubeAuthType   = "kube_source.kube_auth_type"
	KeyKubeAuthConfig = "kube_source.kube_auth_config"
	KeyKubeNamespace  = "kube_source.namespace"

	KeyInformerPollInterval  = "informer.poll_interval"
	KeyInformerSyncTimeout   = "informer.sync_timeout"
	KeyInformerResyncPeriod  = "informer.resync_period"
	KeyInformerFailurePolicy = "informer.failure_policy"

	KeyExporterEnableEventStream = "exporter.enable_event_stream"
	KeyExporterDedupeCacheSize   = "exporter.dedupe_cache_size"

	KeyQuerierEnableQueryServer = "querier.enable_query_server"
)

var Options = []ConfigOption{
	{Key: KeyHTTPServerPort, Flag: flag(KeyHTTPServerPort), Default: 8080, Description: "HTTP server port, 0 disables the server"},
	{Key: KeyKubeAuthType, Flag: flag(KeyKubeAuthType), Default: "kubeConfig", Description: "Kubernetes auth type: serviceAccount or kubeConfig"},
	{Key: KeyKubeAuthConfig, Flag: flag(KeyKubeAuthConfig), Default: "", Description: "Kubeconfig path, defaults to ~/.kube/config"},
	{Key: KeyKubeNamespace, Flag: flag(KeyKubeNamespace), Default: "", Description: "Namespace to watch, empty for all namespaces"},
	{Key: KeyInformerPollInterval, Flag: flag(KeyInformerPollInterval), Default: 100 * time.Millisecond, Description: "Interval between readiness checks"},
	{Key: KeyInformerSyncTimeout, Flag: flag(KeyInformerSyncTimeout), Default: 15 * time.Second, Description: "Bound of the cache sync and watch waits"},
	{Key: KeyInformerResyncPeriod, Flag: flag(KeyInformerResyncPeriod), Default: time.Hour, Description: "Informer resync period"},
	{Key: KeyInformerFailurePolicy, Flag: flag(KeyInformerFailurePolicy), Default: "exit", Description: "What to do when an informer fails: exit or continue"},
	{Key: KeyExporterEnableEventStream, Flag: flag(KeyExporterEnableEventStream), Default: true, Description: "Serve cache events on /events"},
	{Key: KeyExporterDedupeCacheSize, Flag: flag(KeyExporterDedupeCacheSize), Default: 1024, Description: "Number of resource versions remembered to drop resync updates"},
	{Key: KeyQuerierEnableQueryServer, Flag: flag(KeyQuerierEnableQueryServer), Default: true, Description: "Serve cache queries on /query"},
}

// Loader layers defaults, an optional YAML file, K8SEDIT_ environment
// variables and command line flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader reads configFile if set, else config.yaml from the working
// directory or /etc/k8sedit when present.
func NewLoader(configFile string) (*Loader, error) {
	v := viper.New()

	for _, o := range Options {
		v.SetDefault(o.Key, o.Default)
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/k8sedit/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if len(configFile) > 0 || !(errors.As(err, &notFoundErr) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}, nil
}

// AddFlags defines one flag per option on fs. Flags already defined are
// left alone.
func AddFlags(fs *pflag.FlagSet) error {
	for _, o := range Options {
		if fs.Lookup(o.Flag) != nil {
			continue
		}
		switch v := o.Default.(type) {
		case string:
			fs.String(o.Flag, v, o.Description)
		case int:
			fs.Int(o.Flag, v, o.Description)
		case bool:
			fs.Bool(o.Flag, v, o.Description)
		case time.Duration:
			fs.Duration(o.Flag, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}
	}
	return nil
}

// BindFlags makes flags set on fs override every other layer.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	if err := AddFlags(fs); err != nil {
		return err
	}
	for _, o := range Options {
		if err := l.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}
	return nil
}

func (l *Loader) Load() (*K8sEditConfig, error) {
	cfg := &K8sEditConfig{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *K8sEditConfig) Validate() error {
	if c.KubeSource == nil {
		return errors.New("kube_source is required")
	}
	switch c.KubeSource.KubeAuthType {
	case "serviceAccount", "kubeConfig":
	default:
		return fmt.Errorf("unsupported kube_auth_type %q", c.KubeSource.KubeAuthType)
	}
	if c.Informer != nil {
		if c.Informer.PollInterval <= 0 || c.Informer.SyncTimeout <= 0 {
			return errors.New("informer poll_interval and sync_timeout must be positive")
		}
		if c.Informer.PollInterval > c.Informer.SyncTimeout {
			return fmt.Errorf("informer poll_interval %s exceeds sync_timeout %s", c.Informer.PollInterval, c.Informer.SyncTimeout)
		}
	}
	return nil
}

// flag turns a key into a flag name: "informer.sync_timeout" becomes
// "informer-sync-timeout".
func flag(key string) string {
	flag := strings.ToLower(key)
	flag = strings.ReplaceAll(flag, ".", "-")
	flag = strings.ReplaceAll(flag, "_", "-")
	return flag
}
