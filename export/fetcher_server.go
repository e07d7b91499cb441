package export

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/model/resource"
)

const (
	heartBeatInterval = 30 * time.Second
	sendIdleMax       = 10 * time.Second
	sendBufferSize    = 256
)

// SnapshotFunc returns the current cached objects of a kind.
type SnapshotFunc func(ctx context.Context) ([]resource.Object, error)

// FetcherServer streams cache events to websocket clients. A client
// sends a FetchRequest, receives one reset event per subscribed kind
// holding the current snapshot, then every change as it happens.
type FetcherServer struct {
	ctx    context.Context
	cancel context.CancelFunc

	upgrader *websocket.Upgrader

	snapshotMux sync.RWMutex
	snapshots   map[string]SnapshotFunc

	registerFetcher   atomic.Int64
	unRegisterFetcher atomic.Int64

	fetchers sync.Map
}

var _ resource.Exporter = &FetcherServer{}

func NewFetcherServer() *FetcherServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &FetcherServer{
		ctx:       ctx,
		cancel:    cancel,
		upgrader:  &websocket.Upgrader{},
		snapshots: map[string]SnapshotFunc{},
	}
}

// SetupSnapshot registers the snapshot source of kind.
func (s *FetcherServer) SetupSnapshot(kind string, snapshot SnapshotFunc) {
	s.snapshotMux.Lock()
	defer s.snapshotMux.Unlock()
	s.snapshots[kind] = snapshot
}

func (s *FetcherServer) ExportResourceEvents(event *resource.ResourceEvent) {
	idleTimeout := time.NewTimer(sendIdleMax)
	defer idleTimeout.Stop()
	s.fetchers.Range(func(_, value any) bool {
		fetcher := value.(*Fetcher)
		filtered := fetcher.filter(event)
		if filtered == nil {
			return true
		}

		data, err := json.Marshal(&resource.SyncRequest{Events: []*resource.ResourceEvent{filtered}})
		if err != nil {
			klog.ErrorS(err, "Failed to encode resource event", "kind", event.Kind)
			return true
		}

		if !idleTimeout.Stop() {
			select {
			case <-idleTimeout.C:
			default:
			}
		}
		idleTimeout.Reset(sendIdleMax)
		select {
		case fetcher.sendChan <- data:
		case <-fetcher.closed:
		case <-idleTimeout.C:
			klog.InfoS("Dropping slow fetcher", "fetcher", fetcher.ID)
			s.UnregisterFetcher(fetcher)
		}
		return true
	})
}

// FetchWithWS serves the event stream.
func (s *FetcherServer) FetchWithWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		klog.ErrorS(err, "Websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	defer conn.Close()

	fetcher, err := s.RegisterFetcher(conn)
	if err != nil {
		klog.ErrorS(err, "Failed to read fetch request", "remote", conn.RemoteAddr().String())
		return
	}
	defer s.UnregisterFetcher(fetcher)
	klog.V(2).InfoS("Fetcher registered", "remote", conn.RemoteAddr().String(), "fetchers", s.registerFetcher.Load()-s.unRegisterFetcher.Load())

	initRequest := resource.SyncRequest{Events: []*resource.ResourceEvent{}}
	for _, kind := range s.kinds() {
		if !fetcher.wantsKind(kind) {
			continue
		}
		objects, err := s.snapshot(kind)(r.Context())
		if err != nil {
			klog.ErrorS(err, "Failed to snapshot cache", "kind", kind)
			return
		}
		initRequest.Events = append(initRequest.Events, fetcher.filter(&resource.ResourceEvent{
			Kind:      kind,
			Res:       objects,
			Operation: resource.ResetOP,
		}))
	}

	data, err := json.Marshal(initRequest)
	if err != nil {
		return
	}
	if err := fetcher.PushInitEvent(data); err != nil {
		return
	}
	fetcher.KeepPush()
}

func (s *FetcherServer) kinds() []string {
	s.snapshotMux.RLock()
	defer s.snapshotMux.RUnlock()
	kinds := make([]string, 0, len(s.snapshots))
	for kind := range s.snapshots {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func (s *FetcherServer) snapshot(kind string) SnapshotFunc {
	s.snapshotMux.RLock()
	defer s.snapshotMux.RUnlock()
	return s.snapshots[kind]
}

func (s *FetcherServer) RegisterFetcher(conn *websocket.Conn) (*Fetcher, error) {
	var request resource.FetchRequest
	if err := conn.ReadJSON(&request); err != nil {
		return nil, err
	}

	f := &Fetcher{
		ID:         s.registerFetcher.Add(1),
		ctx:        s.ctx,
		Kinds:      toSet(request.Kinds),
		Namespaces: toSet(request.Namespaces),
		conn:       conn,
		sendChan:   make(chan []byte, sendBufferSize),
		closed:     make(chan struct{}),
	}
	s.fetchers.Store(f.ID, f)
	return f, nil
}

func (s *FetcherServer) UnregisterFetcher(f *Fetcher) {
	if f.isClosed.Swap(true) {
		return
	}
	close(f.closed)
	s.fetchers.Delete(f.ID)
	klog.V(2).InfoS("Fetcher unregistered", "remote", f.conn.RemoteAddr().String(), "fetchers", s.registerFetcher.Load()-s.unRegisterFetcher.Add(1))
}

// Stop ends every open stream.
func (s *FetcherServer) Stop() {
	s.cancel()
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

type Fetcher struct {
	ID int64

	isClosed atomic.Bool
	closed   chan struct{}

	ctx context.Context
	// nil means all
	Kinds      map[string]struct{}
	Namespaces map[string]struct{}

	conn     *websocket.Conn
	sendChan chan []byte
}

func (f *Fetcher) wantsKind(kind string) bool {
	if f.Kinds == nil {
		return true
	}
	_, find := f.Kinds[kind]
	return find
}

// filter returns the part of event the fetcher subscribed to, or nil.
// Reset events are kept even when empty.
func (f *Fetcher) filter(event *resource.ResourceEvent) *resource.ResourceEvent {
	if !f.wantsKind(event.Kind) {
		return nil
	}
	if f.Namespaces == nil {
		return event
	}
	res := make([]resource.Object, 0, len(event.Res))
	for _, obj := range event.Res {
		if _, find := f.Namespaces[obj.GetNamespace()]; find {
			res = append(res, obj)
		}
	}
	if len(res) == 0 && event.Operation != resource.ResetOP {
		return nil
	}
	return &resource.ResourceEvent{Kind: event.Kind, Res: res, Operation: event.Operation}
}

func (f *Fetcher) PushInitEvent(data []byte) error {
	return f.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (f *Fetcher) KeepPush() {
	heartBeatTicker := time.NewTicker(heartBeatInterval)
	defer heartBeatTicker.Stop()
	for {
		select {
		case <-heartBeatTicker.C:
			if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				klog.V(2).InfoS("Fetcher failed at heart beat", "remote", f.conn.RemoteAddr().String())
				return
			}
		case <-f.ctx.Done():
			return
		case <-f.closed:
			return
		case data := <-f.sendChan:
			if err := f.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
	}
}
