package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/configs"
	"github.com/vamseeds/k8sedit/source"
)

func newServeCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Sync the API cache and serve it until interrupted",
		Example: "k8sedit serve --kube-source-namespace=shop --http-server-port=8080",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := load(cmd)
			if err != nil {
				return err
			}
			kubeSource, err := source.BuildKubeSource(config)
			if err != nil {
				return fmt.Errorf("failed to initialize kube source: %w", err)
			}
			defer func() {
				if err := kubeSource.Stop(); err != nil {
					klog.ErrorS(err, "Failed to stop kube source")
				}
			}()

			if err := kubeSource.Run(); err != nil {
				return fmt.Errorf("failed to start http server: %w", err)
			}
			<-cmd.Context().Done()
			klog.InfoS("Shutting down")
			return nil
		},
	}
	cobra.CheckErr(configs.AddFlags(cmd.Flags()))
	return cmd
}
