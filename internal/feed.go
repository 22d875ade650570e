package hydrotop

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// EventKind distinguishes transport lifecycle events from messages
type EventKind int

const (
	EventConnect EventKind = iota
	EventDisconnect
	EventMessage
)

// Event is one item of the push channel, in arrival order
type Event struct {
	Kind    EventKind
	Topic   string
	Payload json.RawMessage
}

// Transport delivers push channel events into out until ctx is done.
// Implementations must not reorder events and must not close out.
type Transport interface {
	Run(ctx context.Context, out chan<- Event) error
}

// Messages produced by the feed for the dashboard
type (
	feedConnectedMsg    struct{}
	feedDisconnectedMsg struct{}
	feedClosedMsg       struct{}
	liveSampleMsg       struct {
		metric Metric
		sample Sample
	}
	stateChangedMsg struct {
		state string
	}
)

// LiveFeed queues transport events and hands them to the dashboard one at
// a time, validating payloads on the way
type LiveFeed struct {
	transport Transport
	events    chan Event
	done      chan struct{}
	loc       *time.Location
	logger    *zap.Logger
	metrics   *Metrics
	cancel    context.CancelFunc
}

func NewLiveFeed(transport Transport, loc *time.Location, logger *zap.Logger, metrics *Metrics) *LiveFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveFeed{
		transport: transport,
		events:    make(chan Event, FEED_BUFFER),
		done:      make(chan struct{}),
		loc:       loc,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start runs the transport in the background until ctx is done or Stop is called
func (f *LiveFeed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	go func() {
		defer close(f.done)
		if err := f.transport.Run(ctx, f.events); err != nil && ctx.Err() == nil {
			f.logger.Error("push channel stopped", zap.Error(err))
		}
	}()
}

// Stop cancels the transport
func (f *LiveFeed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Listen waits for the next event and converts it into a dashboard message.
// The dashboard issues Listen again after handling each message, which
// keeps delivery strictly sequential.
func (f *LiveFeed) Listen() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev := <-f.events:
				if msg := f.translate(ev); msg != nil {
					return msg
				}
			case <-f.done:
				// drain what the transport queued before it stopped
				select {
				case ev := <-f.events:
					if msg := f.translate(ev); msg != nil {
						return msg
					}
					continue
				default:
				}
				return feedClosedMsg{}
			}
		}
	}
}

// translate returns nil for events the dashboard does not care about
func (f *LiveFeed) translate(ev Event) tea.Msg {
	switch ev.Kind {
	case EventConnect:
		f.logger.Info("push channel connected")
		if f.metrics != nil {
			f.metrics.Connected.Set(1)
		}
		return feedConnectedMsg{}
	case EventDisconnect:
		f.logger.Warn("push channel disconnected")
		if f.metrics != nil {
			f.metrics.Connected.Set(0)
			f.metrics.Disconnects.Inc()
		}
		return feedDisconnectedMsg{}
	}

	if f.metrics != nil {
		f.metrics.LiveMessages.WithLabelValues(ev.Topic).Inc()
	}

	if ev.Topic == StateTopic {
		var payload struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.State == "" {
			f.logger.Debug("ignoring state message", zap.ByteString("payload", ev.Payload))
			return nil
		}
		return stateChangedMsg{state: payload.State}
	}

	metric, ok := ParseMetric(ev.Topic)
	if !ok {
		return nil
	}
	sample, err := DecodeSample(ev.Payload, f.loc)
	if err != nil {
		f.logger.Debug("skipping live sample",
			zap.String("topic", ev.Topic),
			zap.Error(err))
		if f.metrics != nil {
			f.metrics.MalformedSamples.WithLabelValues("live").Inc()
		}
		return nil
	}
	return liveSampleMsg{metric: metric, sample: sample}
}
