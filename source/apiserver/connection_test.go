package apiserver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/dynamic"
)

func TestSharedConnection(t *testing.T) {
	t.Cleanup(func() {
		SetConnectionSupplier(nil)
		SetClientFactory(NewClientFactory(APIConfig{AuthType: AuthTypeKubeConfig}))
	})

	client := newFakeClient()
	built := 0
	SetClientFactory(func() (dynamic.Interface, error) {
		built++
		return client, nil
	})

	first, err := SharedConnection()
	require.NoError(t, err)
	second, err := SharedConnection()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, built)
	assert.NotNil(t, first.Metrics())

	SetConnectionSupplier(func() (*Connection, error) {
		return NewConnection(client), nil
	})
	third, err := SharedConnection()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Nil(t, third.Metrics())
	require.NoError(t, third.Close())
}

func TestSharedConnectionError(t *testing.T) {
	t.Cleanup(func() { SetConnectionSupplier(nil) })

	cause := errors.New("unreachable")
	SetConnectionSupplier(func() (*Connection, error) {
		return nil, cause
	})
	_, err := SharedConnection()
	assert.ErrorIs(t, err, cause)
}

func TestInitRestConfigUnsupported(t *testing.T) {
	_, err := initRestConfig(APIConfig{AuthType: "token"})
	assert.Error(t, err)
}
