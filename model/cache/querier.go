package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/client"
	"github.com/vamseeds/k8sedit/model/resource"
)

type Query struct {
	*ListerMap
}

func NewQuery(listers *ListerMap) *Query {
	return &Query{ListerMap: listers}
}

// QueryResource answers a client.ResQueryRequest from the cache.
func (q *Query) QueryResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, &client.ErrorResponse{Error: "use POST"})
		return
	}
	defer r.Body.Close()

	var req client.ResQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &client.ErrorResponse{Error: err.Error()})
		return
	}

	lister, find := q.GetLister(req.Kind)
	if !find {
		writeJSON(w, http.StatusNotFound, &client.ErrorResponse{Error: fmt.Sprintf("unknown kind %q", req.Kind)})
		return
	}

	resp := &client.ResInfo{}
	if req.ListAll {
		objects, err := lister.List(r.Context(), req.Namespace)
		if err != nil {
			writeQueryError(w, req, err)
			return
		}
		resp.IsFind = true
		resp.Count = len(objects)
		resp.Object = objects
	} else {
		if len(req.Name) == 0 {
			writeJSON(w, http.StatusBadRequest, &client.ErrorResponse{Error: "name is required unless listAll is set"})
			return
		}
		obj, found, err := lister.Get(r.Context(), req.Name, req.Namespace)
		if err != nil {
			writeQueryError(w, req, err)
			return
		}
		resp.IsFind = found
		if found {
			resp.Count = 1
			resp.Object = obj
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeQueryError(w http.ResponseWriter, req client.ResQueryRequest, err error) {
	klog.ErrorS(err, "Query failed", "kind", req.Kind, "namespace", req.Namespace, "name", req.Name)
	status := http.StatusInternalServerError
	if errors.Is(err, resource.ErrSyncTimeout) || errors.Is(err, resource.ErrWatchTimeout) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, &client.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
