package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/core/domain"
	"github.com/vietddude/buswatch/internal/infra/bus"
	"github.com/vietddude/buswatch/internal/infra/retry"
	"github.com/vietddude/buswatch/internal/metrics"
)

// Connector opens the bus connection.
type Connector interface {
	Establish(ctx context.Context) (bus.Conn, error)
}

// Output receives decoded values.
type Output interface {
	EmitValue(v bool, mapping domain.OutputMapping) error
}

// Config holds the watcher configuration.
type Config struct {
	Subscription      domain.SubscriptionSpec
	Status            *domain.StatusQuerySpec // nil skips the status query
	Mapping           domain.OutputMapping
	Retry             retry.Policy
	StatusPolicy      StatusPolicy
	StreamErrorPolicy StreamErrorPolicy
}

// Watcher runs the connect, query, watch lifecycle once.
type Watcher struct {
	cfg       Config
	connector Connector
	out       Output

	mu       sync.RWMutex
	state    State
	onChange func(Transition)
}

// New creates a Watcher in the disconnected state.
func New(cfg Config, connector Connector, out Output) *Watcher {
	if cfg.StatusPolicy == "" {
		cfg.StatusPolicy = StatusBestEffort
	}
	if cfg.StreamErrorPolicy == "" {
		cfg.StreamErrorPolicy = StreamErrorFatal
	}
	return &Watcher{
		cfg:       cfg,
		connector: connector,
		out:       out,
		state:     StateDisconnected,
	}
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// SetStateChangeCallback registers fn to be called after every transition.
func (w *Watcher) SetStateChangeCallback(fn func(Transition)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Run connects, optionally queries the initial status and then emits one
// line per matched signal until the stream ends. A nil return means the bus
// closed the stream cleanly.
func (w *Watcher) Run(ctx context.Context) error {
	w.transition(StateConnecting, "start")

	conn, err := w.connector.Establish(ctx)
	if err != nil {
		w.terminate(err)
		return err
	}
	defer conn.Close()
	slog.Info("Connected to D-Bus", "bus", conn.Bus())

	if w.cfg.Status != nil {
		w.transition(StateStatusQuerying, "status query configured")
		if err := w.queryStatus(ctx, conn); err != nil {
			w.terminate(err)
			return err
		}
	}

	w.transition(StateWatching, "subscribing")
	stream, err := Subscribe(ctx, conn, w.cfg.Subscription, w.cfg.Retry)
	if err != nil {
		w.terminate(err)
		return err
	}
	defer stream.Close()

	slog.Info("Listening for D-Bus signals",
		"interface", w.cfg.Subscription.Interface,
		"member", w.cfg.Subscription.Member,
	)

	err = w.watch(ctx, stream)
	w.terminate(err)
	return err
}

func (w *Watcher) queryStatus(ctx context.Context, conn bus.Conn) error {
	spec := *w.cfg.Status

	value, err := QueryStatus(ctx, conn, spec, w.cfg.Retry)
	if err == nil {
		w.emit(value)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	classified := apperr.Classify(err)
	if classified.Kind == apperr.ServiceUnavailable || w.cfg.StatusPolicy == StatusStrict {
		slog.Error("Status query failed",
			"interface", w.cfg.Subscription.Interface,
			"member", w.cfg.Subscription.Member,
			"status", spec.String(),
			"error", classified,
		)
		return classified
	}

	slog.Warn("Could not get initial property", "property", spec.Property, "error", classified)
	return nil
}

func (w *Watcher) watch(ctx context.Context, stream bus.Stream) error {
	for {
		msg, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			slog.Info("D-Bus message stream closed")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			classified := apperr.Classify(err)
			metrics.StreamErrors.WithLabelValues(classified.Kind.String()).Inc()
			if w.cfg.StreamErrorPolicy == StreamErrorConnectionOnly && classified.Kind != apperr.BadGateway {
				slog.Warn("Error receiving message, continuing", "error", classified)
				continue
			}
			slog.Error("Error receiving message", "error", classified)
			return classified
		}

		metrics.SignalsReceived.Inc()
		if err := w.process(msg); err != nil {
			metrics.DecodeFailures.Inc()
			slog.Error("Error processing message",
				"sender", msg.Sender,
				"path", msg.Path,
				"code", apperr.KindOf(err).Marker(),
				"error", err,
			)
		}
	}
}

func (w *Watcher) process(msg *bus.Message) error {
	value, err := Extract(msg.Body)
	if err != nil {
		return err
	}
	w.emit(value)
	return nil
}

func (w *Watcher) emit(value bool) {
	if err := w.out.EmitValue(value, w.cfg.Mapping); err != nil {
		slog.Error("Failed to write output", "error", err)
	}
}

func (w *Watcher) terminate(err error) {
	reason := "stream closed"
	if err != nil {
		reason = err.Error()
	}
	w.transition(StateTerminated, reason)
}

func (w *Watcher) transition(to State, reason string) {
	w.mu.Lock()
	t := NewTransition(w.state, to, reason)
	if !t.IsValid() {
		w.mu.Unlock()
		slog.Error("Ignoring invalid state transition",
			"from", t.From, "to", t.To, "error", ErrInvalidTransition)
		return
	}
	w.state = to
	onChange := w.onChange
	w.mu.Unlock()

	metrics.StateTransitions.WithLabelValues(string(t.From), string(t.To)).Inc()
	slog.Debug("Watcher state changed", "from", t.From, "to", t.To, "reason", reason)
	if onChange != nil {
		onChange(t)
	}
}
