package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apiv1 "github.com/vamseeds/k8sedit/api/v1"
	"github.com/vamseeds/k8sedit/client"
	"github.com/vamseeds/k8sedit/model/resource"
)

func newWatchCommand() *cobra.Command {
	var (
		address    string
		namespaces []string
	)
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Follow the API event stream of a running k8sedit server",
		Example: "k8sedit watch --address=localhost:8080 --namespace=shop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			request := resource.FetchRequest{
				Kinds:      []string{apiv1.Kind.Plural},
				Namespaces: namespaces,
			}
			err := client.FollowEvents(cmd.Context(), address, request, client.DefaultRetryInterval,
				func(e *client.Event) error {
					return printEvent(cmd.OutOrStdout(), e)
				})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&address, "address", "localhost:8080", "Address of the k8sedit http server")
	cmd.Flags().StringSliceVar(&namespaces, "namespace", nil, "Namespaces to follow, all if unset")
	return cmd
}

func printEvent(w io.Writer, e *client.Event) error {
	apis, err := client.DecodeEvent(e, apiv1.New)
	if err != nil {
		return err
	}
	if e.Operation == resource.ResetOP {
		_, err := fmt.Fprintf(w, "# %s %s (%d)\n", e.Operation, e.Kind, len(apis))
		if err != nil {
			return err
		}
	}
	for _, api := range apis {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Operation, api.Namespace, api.Name, api.ResourceVersion); err != nil {
			return err
		}
	}
	return nil
}
