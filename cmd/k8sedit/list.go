package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	apiv1 "github.com/vamseeds/k8sedit/api/v1"
	"github.com/vamseeds/k8sedit/configs"
	"github.com/vamseeds/k8sedit/repository"
	"github.com/vamseeds/k8sedit/source"
	"github.com/vamseeds/k8sedit/source/apiserver"
)

func newListCommand(load configLoader) *cobra.Command {
	var allNamespaces bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Sync the API cache once and print its resources as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := load(cmd)
			if err != nil {
				return err
			}
			// list never serves
			config.HttpServer = nil
			config.Exporter = nil

			kubeSource, err := source.BuildKubeSource(config)
			if err != nil {
				return fmt.Errorf("failed to initialize kube source: %w", err)
			}
			defer func() { _ = kubeSource.Stop() }()

			timeout := apiserver.DefaultSyncTimeout
			if config.Informer != nil {
				timeout = config.Informer.SyncTimeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := kubeSource.WaitForSync(ctx); err != nil {
				return err
			}

			apis, err := repository.APIsInstance()
			if err != nil {
				return err
			}
			var items []*apiv1.API
			if allNamespaces {
				items, err = apis.GetResourcesInAllNamespaces(ctx)
			} else {
				items, err = apis.GetResourcesInNamespace(ctx, config.KubeSource.Namespace)
			}
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "List the resources of every namespace")
	cobra.CheckErr(configs.AddFlags(cmd.Flags()))
	return cmd
}

func printYAML(w io.Writer, items []*apiv1.API) error {
	for i, item := range items {
		data, err := yaml.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", item.Namespace, item.Name, err)
		}
		if i > 0 {
			if _, err := fmt.Fprintln(w, "---"); err != nil {
				return err
			}
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
