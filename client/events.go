package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	"github.com/vamseeds/k8sedit/model/resource"
)

const DefaultRetryInterval = 30 * time.Second

// Event is one message of the /events stream with its resources left
// encoded, see DecodeEvent.
type Event struct {
	Kind      string                `json:"kind"`
	Res       []json.RawMessage     `json:"res"`
	Operation resource.ResOperation `json:"operation"`
}

type syncMessage struct {
	Events []*Event `json:"events"`
}

// DecodeEvent decodes the resources of e into objects made by newObject.
func DecodeEvent[T any](e *Event, newObject func() T) ([]T, error) {
	objects := make([]T, 0, len(e.Res))
	for _, raw := range e.Res {
		obj := newObject()
		if err := json.Unmarshal(raw, obj); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", e.Kind, err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// EventsURL turns a server address, with or without scheme and path
// prefix, into the websocket url of its event stream.
func EventsURL(address string) url.URL {
	scheme := "ws"
	if strings.HasPrefix(address, "https://") {
		scheme = "wss"
	}
	address = strings.TrimPrefix(address, "http://")
	address = strings.TrimPrefix(address, "https://")
	address = strings.TrimSuffix(address, "/")

	pathIdx := strings.IndexByte(address, '/')
	if pathIdx < 0 {
		return url.URL{Scheme: scheme, Host: address, Path: "/events"}
	}
	return url.URL{Scheme: scheme, Host: address[:pathIdx], Path: address[pathIdx:] + "/events"}
}

type handlerError struct {
	err error
}

func (e *handlerError) Error() string { return e.err.Error() }

func (e *handlerError) Unwrap() error { return e.err }

// StreamEvents subscribes to the event stream at u and calls handle for
// every event until ctx is done, the connection breaks or handle fails.
// The first events are the reset snapshots of the subscribed kinds.
func StreamEvents(ctx context.Context, u url.URL, request resource.FetchRequest, handle func(*Event) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(request); err != nil {
		return err
	}
	klog.V(2).InfoS("Subscribed to event stream", "url", u.String())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var msg syncMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		for _, event := range msg.Events {
			if err := handle(event); err != nil {
				return &handlerError{err: err}
			}
		}
	}
}

// FollowEvents runs StreamEvents against address and reconnects after
// retryInterval whenever the connection breaks. Every reconnect starts
// with fresh reset snapshots. It returns when ctx is done or handle
// fails.
func FollowEvents(ctx context.Context, address string, request resource.FetchRequest, retryInterval time.Duration, handle func(*Event) error) error {
	u := EventsURL(address)
	for {
		err := StreamEvents(ctx, u, request, handle)
		var hErr *handlerError
		if errors.As(err, &hErr) {
			return hErr.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		klog.ErrorS(err, "Event stream broken, retrying", "url", u.String(), "retryInterval", retryInterval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}
