package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/vamseeds/k8sedit/client"
	"github.com/vamseeds/k8sedit/model/resource"
)

type staticLister struct {
	objects []resource.Object
	err     error
}

func (l *staticLister) Get(_ context.Context, name, namespace string) (resource.Object, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	for _, obj := range l.objects {
		if obj.GetName() == name && obj.GetNamespace() == namespace {
			return obj, true, nil
		}
	}
	return nil, false, nil
}

func (l *staticLister) List(_ context.Context, namespace string) ([]resource.Object, error) {
	if l.err != nil {
		return nil, l.err
	}
	result := []resource.Object{}
	for _, obj := range l.objects {
		if len(namespace) == 0 || obj.GetNamespace() == namespace {
			result = append(result, obj)
		}
	}
	return result, nil
}

func newObject(namespace, name string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion("k8sedit.io/v1")
	u.SetKind("API")
	u.SetNamespace(namespace)
	u.SetName(name)
	return u
}

func doQuery(t *testing.T, q *Query, method string, body any) (*httptest.ResponseRecorder, client.ResInfo) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	q.QueryResource(rec, httptest.NewRequest(method, "/query", bytes.NewReader(data)))

	var info client.ResInfo
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	}
	return rec, info
}

func TestQueryResource(t *testing.T) {
	listers := NewListerMap()
	listers.AddLister("apis", &staticLister{objects: []resource.Object{
		newObject("shop", "orders"),
		newObject("shop", "carts"),
		newObject("billing", "invoices"),
	}})
	q := NewQuery(listers)

	tests := []struct {
		name      string
		method    string
		req       any
		wantCode  int
		wantFind  bool
		wantCount int
	}{
		{
			name:      "get by name",
			method:    http.MethodPost,
			req:       client.ResQueryRequest{Kind: "apis", Namespace: "shop", Name: "orders"},
			wantCode:  http.StatusOK,
			wantFind:  true,
			wantCount: 1,
		},
		{
			name:     "missing object",
			method:   http.MethodPost,
			req:      client.ResQueryRequest{Kind: "apis", Namespace: "billing", Name: "orders"},
			wantCode: http.StatusOK,
		},
		{
			name:      "list namespace",
			method:    http.MethodPost,
			req:       client.ResQueryRequest{Kind: "apis", Namespace: "shop", ListAll: true},
			wantCode:  http.StatusOK,
			wantFind:  true,
			wantCount: 2,
		},
		{
			name:      "list all",
			method:    http.MethodPost,
			req:       client.ResQueryRequest{Kind: "apis", ListAll: true},
			wantCode:  http.StatusOK,
			wantFind:  true,
			wantCount: 3,
		},
		{
			name:     "unknown kind",
			method:   http.MethodPost,
			req:      client.ResQueryRequest{Kind: "routes", ListAll: true},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "no name",
			method:   http.MethodPost,
			req:      client.ResQueryRequest{Kind: "apis"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad body",
			method:   http.MethodPost,
			req:      []string{"apis"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong method",
			method:   http.MethodGet,
			req:      client.ResQueryRequest{Kind: "apis", ListAll: true},
			wantCode: http.StatusMethodNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, info := doQuery(t, q, tt.method, tt.req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantFind, info.IsFind)
			assert.Equal(t, tt.wantCount, info.Count)
		})
	}
}

func TestQueryResourceNotSynced(t *testing.T) {
	listers := NewListerMap()
	listers.AddLister("apis", &staticLister{err: &resource.TimeoutError{Kind: "API", Phase: resource.PhaseSync, Timeout: time.Second}})

	rec, _ := doQuery(t, NewQuery(listers), http.MethodPost, client.ResQueryRequest{Kind: "apis", ListAll: true})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListerMapKinds(t *testing.T) {
	listers := NewListerMap()
	listers.AddLister("routes", &staticLister{})
	listers.AddLister("apis", &staticLister{})
	assert.Equal(t, []string{"apis", "routes"}, listers.Kinds())
}
