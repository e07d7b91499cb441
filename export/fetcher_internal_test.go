package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiv1 "github.com/vamseeds/k8sedit/api/v1"
	"github.com/vamseeds/k8sedit/model/resource"
)

func TestExportSkipsClosedFetcher(t *testing.T) {
	s := NewFetcherServer()
	t.Cleanup(s.Stop)

	closedFetcher := &Fetcher{ID: 1, closed: make(chan struct{}), ctx: context.Background(), sendChan: make(chan []byte, 1)}
	closedFetcher.sendChan <- []byte("pending")
	closedFetcher.isClosed.Store(true)
	close(closedFetcher.closed)
	openFetcher := &Fetcher{ID: 2, closed: make(chan struct{}), ctx: context.Background(), sendChan: make(chan []byte, 1)}
	s.fetchers.Store(closedFetcher.ID, closedFetcher)
	s.fetchers.Store(openFetcher.ID, openFetcher)

	api := apiv1.New()
	api.Namespace, api.Name = "shop", "orders"

	done := make(chan struct{})
	go func() {
		s.ExportResourceEvents(&resource.ResourceEvent{Kind: "apis", Res: []resource.Object{api}, Operation: resource.AddOP})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("export blocked on a closed fetcher")
	}
	require.Len(t, openFetcher.sendChan, 1)
	assert.Equal(t, []byte("pending"), <-closedFetcher.sendChan)
}
