package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

type HTTPServer struct {
	srvMux *http.ServeMux

	serverMux sync.Mutex
	server    *http.Server
	addr      net.Addr

	listenAddr string

	HandlerMap map[string]http.HandlerFunc
}

func NewHTTPServer(listenAddr string) *HTTPServer {
	return &HTTPServer{
		srvMux:     http.NewServeMux(),
		listenAddr: listenAddr,
		HandlerMap: map[string]http.HandlerFunc{},
	}
}

func (s *HTTPServer) SetListenAddr(listenAddr string) {
	s.listenAddr = listenAddr
}

func (s *HTTPServer) RegisterHandler(path string, handler http.HandlerFunc) {
	klog.V(2).InfoS("Registering handler", "addr", s.listenAddr, "path", path)
	s.srvMux.Handle(path, handler)
	s.HandlerMap[path] = handler
}

// Handler returns the mux with every registered handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.srvMux
}

// Addr is the bound address once the server is started.
func (s *HTTPServer) Addr() net.Addr {
	s.serverMux.Lock()
	defer s.serverMux.Unlock()
	return s.addr
}

// StartHttpServer binds the listen address and serves in the
// background. It is a no-op without an address or handlers.
func (s *HTTPServer) StartHttpServer() error {
	if len(s.listenAddr) == 0 {
		klog.InfoS("Listen address is empty, skip http server start")
		return nil
	} else if len(s.HandlerMap) == 0 {
		klog.InfoS("No handler registered, skip http server start")
		return nil
	}

	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           s.srvMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.serverMux.Lock()
	s.server = server
	s.addr = listener.Addr()
	s.serverMux.Unlock()
	klog.InfoS("Starting http server", "addr", listener.Addr().String())

	go func() {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.ErrorS(err, "Http server stopped")
		}
	}()
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.serverMux.Lock()
	server := s.server
	s.serverMux.Unlock()
	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}
