package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	apiv1 "github.com/vamseeds/k8sedit/api/v1"
	"github.com/vamseeds/k8sedit/client"
	"github.com/vamseeds/k8sedit/model/resource"
)

func TestRootCommandFlags(t *testing.T) {
	root := newRootCommand()
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("v"))

	for _, name := range []string{"serve", "list"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
		assert.NotNil(t, cmd.Flags().Lookup("informer-sync-timeout"), name)
		assert.NotNil(t, cmd.Flags().Lookup("kube-source-namespace"), name)
	}
}

func TestPrintYAML(t *testing.T) {
	orders := apiv1.New()
	orders.ObjectMeta = metav1.ObjectMeta{Namespace: "shop", Name: "orders"}
	orders.Spec.APIName = "Orders"
	carts := apiv1.New()
	carts.ObjectMeta = metav1.ObjectMeta{Namespace: "shop", Name: "carts"}

	var out bytes.Buffer
	require.NoError(t, printYAML(&out, []*apiv1.API{orders, carts}))
	assert.Contains(t, out.String(), "api-name: Orders")
	assert.Contains(t, out.String(), "name: orders")
	assert.Contains(t, out.String(), "\n---\n")
	assert.Contains(t, out.String(), "name: carts")
}

func TestPrintEvent(t *testing.T) {
	event := &client.Event{
		Kind:      "apis",
		Operation: resource.ResetOP,
		Res:       []json.RawMessage{[]byte(`{"metadata":{"namespace":"shop","name":"orders","resourceVersion":"7"},"spec":{"api-name":"Orders"}}`)},
	}
	var out bytes.Buffer
	require.NoError(t, printEvent(&out, event))
	assert.Equal(t, "# RESET apis (1)\nRESET\tshop\torders\t7\n", out.String())

	out.Reset()
	event.Res = []json.RawMessage{[]byte(`[]`)}
	assert.Error(t, printEvent(&out, event))
}
