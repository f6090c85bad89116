// Package bus abstracts the D-Bus client used by the watcher.
//
// The godbus implementation lives in dbus.go; tests use bustest fakes.
package bus

import (
	"context"

	"github.com/vietddude/buswatch/internal/core/domain"
)

// Message is a matched signal.
type Message struct {
	Sender    string
	Path      string
	Interface string
	Member    string
	Body      []any
}

// Stream yields matched messages in delivery order. Next returns io.EOF once
// the bus closes the stream. A stream cannot be restarted.
type Stream interface {
	Next(ctx context.Context) (*Message, error)
	Close() error
}

// Conn is an open bus connection.
type Conn interface {
	// Subscribe registers rule with the bus and returns the matching stream.
	Subscribe(ctx context.Context, rule domain.MatchRule) (Stream, error)

	// GetProperty reads a property through org.freedesktop.DBus.Properties.Get.
	GetProperty(ctx context.Context, q domain.StatusQuerySpec) (any, error)

	// Bus names the bus this connection is attached to.
	Bus() string

	Close() error
}

// Dialer opens connections to the session and system buses.
type Dialer interface {
	Session(ctx context.Context) (Conn, error)
	System(ctx context.Context) (Conn, error)
}
