package hydrotop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
	"go.uber.org/zap"
)

var (
	errDisconnected   = errors.New("socket.io session closed")
	errConnectRefused = errors.New("socket.io connect refused")
)

// SocketIOTransport subscribes to the board's Socket.IO event stream,
// reconnecting with exponential backoff.
type SocketIOTransport struct {
	origin         string
	path           string
	topics         []string
	timeout        time.Duration
	reconnectDelay time.Duration
	maxDelay       time.Duration
	logger         *zap.Logger
}

// NewSocketIOTransport targets the Socket.IO endpoint of the board at base
func NewSocketIOTransport(base *url.URL, reconnectDelay time.Duration, logger *zap.Logger) *SocketIOTransport {
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	origin, path := socketIOEndpoint(base)
	topics := []string{StateTopic}
	for _, metric := range AllMetrics() {
		topics = append(topics, metric.String())
	}
	return &SocketIOTransport{
		origin:         origin,
		path:           path,
		topics:         topics,
		timeout:        10 * time.Second,
		reconnectDelay: reconnectDelay,
		maxDelay:       max(30*time.Second, reconnectDelay),
		logger:         logger,
	}
}

// socketIOEndpoint splits base into the server origin and the engine path
// mounted below base's own path
func socketIOEndpoint(base *url.URL) (string, string) {
	origin := url.URL{Scheme: "http", Host: base.Host}
	if base.Scheme == "https" || base.Scheme == "wss" {
		origin.Scheme = "https"
	}
	return origin.String(), strings.TrimSuffix(base.Path, "/") + "/socket.io"
}

func (t *SocketIOTransport) options() socket.OptionsInterface {
	opts := socket.DefaultOptions()
	opts.SetPath(t.path)
	opts.SetTransports(types.NewSet(socket.WebSocket))
	opts.SetTimeout(t.timeout)
	// Run owns retries, a refused namespace join included
	opts.SetReconnection(false)
	opts.SetForceNew(true)
	opts.SetAutoConnect(false)
	return opts
}

// Run implements Transport
func (t *SocketIOTransport) Run(ctx context.Context, out chan<- Event) error {
	retry := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(t.reconnectDelay),
		backoff.WithMaxInterval(t.maxDelay),
		backoff.WithMaxElapsedTime(0),
	), ctx)

	first := true
	for {
		connected := false
		err := t.session(ctx, out, &connected)
		if ctx.Err() != nil {
			return nil
		}

		// a board that is down at start-up counts as lost, too
		if connected || first {
			if !emit(ctx, out, Event{Kind: EventDisconnect}) {
				return nil
			}
		}
		if connected {
			retry.Reset()
		}
		first = false

		delay := retry.NextBackOff()
		if delay == backoff.Stop {
			return nil
		}
		t.logger.Warn("socket.io session ended",
			zap.String("url", t.origin+t.path),
			zap.Duration("retry_in", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// sessionEvent carries one event, or the reason the session ended
type sessionEvent struct {
	ev  Event
	err error
}

func (t *SocketIOTransport) session(ctx context.Context, out chan<- Event, connected *bool) error {
	client, err := socket.Connect(t.origin, t.options())
	if err != nil {
		return fmt.Errorf("socket.io %s: %w", t.origin, err)
	}

	// listeners run on the client's goroutines and must not outlive the session
	events := make(chan sessionEvent, 64)
	stop := make(chan struct{})
	defer client.Disconnect()
	defer close(stop)
	push := func(se sessionEvent) {
		select {
		case events <- se:
		case <-stop:
		}
	}

	client.On("connect", func(...any) {
		push(sessionEvent{ev: Event{Kind: EventConnect}})
	})
	client.On("connect_error", func(args ...any) {
		push(sessionEvent{err: fmt.Errorf("%w: %v", errConnectRefused, firstArg(args))})
	})
	client.On("disconnect", func(args ...any) {
		push(sessionEvent{err: fmt.Errorf("%w: %v", errDisconnected, firstArg(args))})
	})
	for _, topic := range t.topics {
		client.On(types.EventName(topic), func(args ...any) {
			ev, err := topicEvent(topic, args)
			if err != nil {
				t.logger.Debug("ignoring socket.io event", zap.String("topic", topic), zap.Error(err))
				return
			}
			push(sessionEvent{ev: ev})
		})
	}
	client.Connect()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case se := <-events:
			if se.err != nil {
				return se.err
			}
			if se.ev.Kind == EventConnect {
				*connected = true
			}
			if !emit(ctx, out, se.ev) {
				return ctx.Err()
			}
		}
	}
}

// topicEvent re-encodes the first argument of a board event as its payload
func topicEvent(topic string, args []any) (Event, error) {
	ev := Event{Kind: EventMessage, Topic: topic}
	if len(args) == 0 {
		return ev, nil
	}
	payload, err := json.Marshal(args[0])
	if err != nil {
		return ev, fmt.Errorf("encode payload: %w", err)
	}
	ev.Payload = payload
	return ev, nil
}

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
