package bus

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/core/domain"
)

const (
	propertiesGet = "org.freedesktop.DBus.Properties.Get"
	invalidArgs   = "org.freedesktop.DBus.Error.InvalidArgs"

	signalBuffer = 16
)

// DBusDialer connects through godbus.
type DBusDialer struct{}

// NewDBusDialer returns a dialer for the real buses.
func NewDBusDialer() *DBusDialer {
	return &DBusDialer{}
}

// connOptions keeps signals in bus delivery order. The default godbus
// handler spawns a goroutine per signal once the channel is full.
func connOptions(ctx context.Context) []dbus.ConnOption {
	return []dbus.ConnOption{
		dbus.WithContext(ctx),
		dbus.WithSignalHandler(newSignalHandler()),
	}
}

func newSignalHandler() dbus.SignalHandler {
	return dbus.NewSequentialSignalHandler()
}

func (DBusDialer) Session(ctx context.Context) (Conn, error) {
	conn, err := dbus.ConnectSessionBus(connOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	return &dbusConn{conn: conn, bus: "session"}, nil
}

func (DBusDialer) System(ctx context.Context) (Conn, error) {
	conn, err := dbus.ConnectSystemBus(connOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	return &dbusConn{conn: conn, bus: "system"}, nil
}

type dbusConn struct {
	conn *dbus.Conn
	bus  string
}

func (c *dbusConn) Bus() string {
	return c.bus
}

func (c *dbusConn) Close() error {
	return c.conn.Close()
}

func (c *dbusConn) Subscribe(ctx context.Context, rule domain.MatchRule) (Stream, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchInterface(rule.Interface),
		dbus.WithMatchMember(rule.Member),
	}
	// AddMatchSignal always adds type='signal'.
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return nil, err
	}

	ch := make(chan *dbus.Signal, signalBuffer)
	c.conn.Signal(ch)

	return &signalStream{conn: c.conn, ch: ch, rule: rule, opts: opts}, nil
}

func (c *dbusConn) GetProperty(ctx context.Context, q domain.StatusQuerySpec) (any, error) {
	path := dbus.ObjectPath(q.Path)
	if !path.IsValid() {
		return nil, apperr.New(apperr.NotFound, "invalid object path %q", q.Path)
	}

	var value dbus.Variant
	err := c.conn.Object(q.Service, path).
		CallWithContext(ctx, propertiesGet, 0, q.Interface, q.Property).
		Store(&value)
	if err != nil {
		if isMissingInterface(err) {
			return nil, fmt.Errorf("%w: %w", apperr.ErrInterfaceNotFound, err)
		}
		return nil, err
	}
	return value, nil
}

// Property services reply InvalidArgs "No such interface ..." when the
// object exists without the interface.
func isMissingInterface(err error) bool {
	var dbusErr dbus.Error
	if e, ok := err.(dbus.Error); ok {
		dbusErr = e
	} else if e, ok := err.(*dbus.Error); ok && e != nil {
		dbusErr = *e
	} else {
		return false
	}
	return dbusErr.Name == invalidArgs && strings.Contains(dbusErr.Error(), "No such interface")
}

type signalStream struct {
	conn *dbus.Conn
	ch   chan *dbus.Signal
	rule domain.MatchRule
	opts []dbus.MatchOption
}

func (s *signalStream) Next(ctx context.Context) (*Message, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-s.ch:
			if !ok {
				return nil, io.EOF
			}
			// The channel also receives bus-originated signals such as NameAcquired.
			iface, member := splitName(sig.Name)
			if !s.rule.Matches(iface, member) {
				continue
			}
			return &Message{
				Sender:    sig.Sender,
				Path:      string(sig.Path),
				Interface: iface,
				Member:    member,
				Body:      sig.Body,
			}, nil
		}
	}
}

func (s *signalStream) Close() error {
	s.conn.RemoveSignal(s.ch)
	return s.conn.RemoveMatchSignal(s.opts...)
}

func splitName(name string) (iface, member string) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return "", name
	}
	return name[:idx], name[idx+1:]
}
