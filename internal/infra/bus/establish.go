package bus

import (
	"context"
	"log/slog"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/infra/retry"
)

const connectOperation = "D-Bus connection"

// Establisher opens a bus connection, session bus first.
type Establisher struct {
	dialer Dialer
	policy retry.Policy
}

// NewEstablisher creates an Establisher retrying with policy.
func NewEstablisher(dialer Dialer, policy retry.Policy) *Establisher {
	return &Establisher{dialer: dialer, policy: policy}
}

// Establish connects under the retry policy.
func (e *Establisher) Establish(ctx context.Context) (Conn, error) {
	return retry.Do(ctx, connectOperation, e.policy, e.connect)
}

// connect tries the session bus and falls back to the system bus.
// When both fail only the system bus cause is returned.
func (e *Establisher) connect(ctx context.Context) (Conn, error) {
	conn, err := e.dialer.Session(ctx)
	if err == nil {
		slog.Debug("Connected to session bus")
		return conn, nil
	}
	slog.Debug("Failed to connect to session bus, trying system bus", "error", err)

	conn, systemErr := e.dialer.System(ctx)
	if systemErr == nil {
		slog.Debug("Connected to system bus")
		return conn, nil
	}

	slog.Error("Failed to connect to both session and system bus",
		"session_error", err,
		"system_error", systemErr,
	)
	return nil, apperr.Wrap(apperr.BadGateway, systemErr, "D-Bus connection failed")
}
