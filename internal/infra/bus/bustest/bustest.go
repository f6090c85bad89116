// Package bustest provides in-memory bus fakes for tests.
package bustest

import (
	"context"
	"io"

	"github.com/vietddude/buswatch/internal/core/domain"
	"github.com/vietddude/buswatch/internal/infra/bus"
)

// Dialer is a scripted bus.Dialer.
type Dialer struct {
	SessionErr error
	SystemErr  error
	Conn       *Conn

	SessionCalls int
	SystemCalls  int
}

func (d *Dialer) Session(ctx context.Context) (bus.Conn, error) {
	d.SessionCalls++
	if d.SessionErr != nil {
		return nil, d.SessionErr
	}
	d.Conn.BusName = "session"
	return d.Conn, nil
}

func (d *Dialer) System(ctx context.Context) (bus.Conn, error) {
	d.SystemCalls++
	if d.SystemErr != nil {
		return nil, d.SystemErr
	}
	d.Conn.BusName = "system"
	return d.Conn, nil
}

// Event is one item delivered by a Stream: a message or an error.
type Event struct {
	Message *bus.Message
	Err     error
}

// Signal builds a matched-signal event.
func Signal(iface, member string, body ...any) Event {
	return Event{Message: &bus.Message{
		Sender:    ":1.42",
		Path:      "/com/example",
		Interface: iface,
		Member:    member,
		Body:      body,
	}}
}

// Failure builds a stream error event.
func Failure(err error) Event {
	return Event{Err: err}
}

// Conn is a scripted bus.Conn.
type Conn struct {
	BusName string

	// SubscribeErrs are returned by successive Subscribe calls; a nil entry
	// or an exhausted slice means success.
	SubscribeErrs []error
	// Events are delivered by the stream in order, then io.EOF.
	Events []Event

	Property     any
	PropertyErrs []error

	SubscribeCalls int
	PropertyCalls  int
	Rules          []domain.MatchRule
	Closed         bool
}

func (c *Conn) Bus() string {
	return c.BusName
}

func (c *Conn) Close() error {
	c.Closed = true
	return nil
}

func (c *Conn) Subscribe(ctx context.Context, rule domain.MatchRule) (bus.Stream, error) {
	c.SubscribeCalls++
	c.Rules = append(c.Rules, rule)
	if err := pop(&c.SubscribeErrs); err != nil {
		return nil, err
	}
	return &Stream{events: c.Events}, nil
}

func (c *Conn) GetProperty(ctx context.Context, q domain.StatusQuerySpec) (any, error) {
	c.PropertyCalls++
	if err := pop(&c.PropertyErrs); err != nil {
		return nil, err
	}
	return c.Property, nil
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

// Stream replays scripted events.
type Stream struct {
	events []Event
	Closed bool
}

func (s *Stream) Next(ctx context.Context) (*bus.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.events) == 0 {
		return nil, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev.Message, ev.Err
}

func (s *Stream) Close() error {
	s.Closed = true
	return nil
}
