package apiserver

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

type AuthType string

const (
	AuthTypeServiceAccount AuthType = "serviceAccount"
	AuthTypeKubeConfig     AuthType = "kubeConfig"
)

type APIConfig struct {
	AuthType     AuthType
	AuthFilePath string
}

// ClientFactory builds the client the shared connection talks to the
// remote store with.
type ClientFactory func() (dynamic.Interface, error)

// NewClientFactory returns a ClientFactory for cfg.
func NewClientFactory(cfg APIConfig) ClientFactory {
	return func() (dynamic.Interface, error) {
		restConfig, err := initRestConfig(cfg)
		if err != nil {
			return nil, err
		}
		return dynamic.NewForConfig(restConfig)
	}
}

func initRestConfig(cfg APIConfig) (*rest.Config, error) {
	switch cfg.AuthType {
	case AuthTypeServiceAccount:
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("load in-cluster config: %w", err)
		}
		return restConfig, nil
	case AuthTypeKubeConfig, "":
		path := cfg.AuthFilePath
		if len(path) == 0 {
			path = defaultKubeConfigPath()
		}
		restConfig, err := clientcmd.BuildConfigFromFlags("", path)
		if err != nil {
			return nil, fmt.Errorf("load kubeconfig %s: %w", path, err)
		}
		return restConfig, nil
	}
	return nil, fmt.Errorf("unsupported auth type %q", cfg.AuthType)
}

func defaultKubeConfigPath() string {
	if path := os.Getenv(clientcmd.RecommendedConfigPathEnvVar); len(path) > 0 {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, clientcmd.RecommendedHomeDir, clientcmd.RecommendedFileName)
}
