package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiv1 "github.com/vamseeds/k8sedit/api/v1"
	"github.com/vamseeds/k8sedit/model/resource"
	"github.com/vamseeds/k8sedit/source/apiserver"
)

func TestRegistryRegister(t *testing.T) {
	conn, _ := newTestConnection(t)
	reg := NewRegistry()
	assert.False(t, reg.Healthy())
	assert.False(t, reg.Ready())

	first, err := Register(reg, conn, apiv1.Kind, apiv1.New)
	require.NoError(t, err)
	second, err := Register(reg, conn, apiv1.Kind, apiv1.New)
	require.NoError(t, err)
	assert.Same(t, first, second)

	status, find := reg.Get("apis")
	require.True(t, find)
	assert.Equal(t, "API", status.SimpleResourceName())
	assert.Len(t, reg.Statuses(), 1)

	assert.Eventually(t, reg.Healthy, 5*time.Second, 10*time.Millisecond)
	assert.True(t, reg.Ready())
}

func TestRegistryRejectsOtherType(t *testing.T) {
	conn, _ := newTestConnection(t)
	reg := NewRegistry()
	_, err := Register(reg, conn, apiv1.Kind, apiv1.New)
	require.NoError(t, err)

	_, err = Register(reg, conn, apiv1.Kind, func() resource.Object { return apiv1.New() })
	assert.Error(t, err)
}

func TestAPIsInstance(t *testing.T) {
	t.Cleanup(func() { SetAPIsSupplier(nil) })

	conn, _ := newTestConnection(t)
	built := 0
	SetAPIsSupplier(func() (*APIs, error) {
		built++
		return NewAPIs(conn)
	})

	first, err := APIsInstance()
	require.NoError(t, err)
	second, err := APIsInstance()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, built)
	assert.Eventually(t, first.IsHealthy, 5*time.Second, 10*time.Millisecond)

	SetAPIsSupplier(func() (*APIs, error) {
		built++
		return NewAPIs(conn)
	})
	third, err := APIsInstance()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, built)
}

func TestAPIsInstanceWithoutConnection(t *testing.T) {
	t.Cleanup(func() {
		SetAPIsSupplier(nil)
		apiserver.SetConnectionSupplier(nil)
	})

	cause := errors.New("no kubeconfig")
	apiserver.SetConnectionSupplier(func() (*apiserver.Connection, error) {
		return nil, cause
	})
	SetAPIsSupplier(nil)

	_, err := APIsInstance()
	var initErr *resource.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, cause)
}
