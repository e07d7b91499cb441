// Command k8sedit keeps an in-memory cache of the API custom resources
// of a cluster and serves it over http.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/configs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "devel"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func newRootCommand() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "k8sedit",
		Short:         "Cache and serve the API resources of a Kubernetes cluster",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	load := func(cmd *cobra.Command) (*configs.K8sEditConfig, error) {
		loader, err := configs.NewLoader(configFile)
		if err != nil {
			return nil, err
		}
		if err := loader.BindFlags(cmd.Flags()); err != nil {
			return nil, err
		}
		return loader.Load()
	}

	root.AddCommand(newServeCommand(load), newListCommand(load), newWatchCommand())
	return root
}

type configLoader func(cmd *cobra.Command) (*configs.K8sEditConfig, error)
