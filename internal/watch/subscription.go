package watch

import (
	"context"
	"log/slog"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/core/domain"
	"github.com/vietddude/buswatch/internal/infra/bus"
	"github.com/vietddude/buswatch/internal/infra/retry"
)

const (
	subscribeOperation = "D-Bus message stream setup"
	statusOperation    = "D-Bus status query"
)

// Subscribe registers the match rule for spec and returns the signal stream.
func Subscribe(
	ctx context.Context,
	conn bus.Conn,
	spec domain.SubscriptionSpec,
	policy retry.Policy,
) (bus.Stream, error) {
	if err := spec.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.NotFound, err, "invalid subscription")
	}

	rule := spec.MatchRule()
	slog.Debug("Adding match rule", "rule", rule.String(), "bus", conn.Bus())

	return retry.Do(ctx, subscribeOperation, policy, func(ctx context.Context) (bus.Stream, error) {
		stream, err := conn.Subscribe(ctx, rule)
		if err != nil {
			return nil, apperr.ClassifyRegistration(err)
		}
		return stream, nil
	})
}

// QueryStatus reads the configured property and decodes it.
func QueryStatus(
	ctx context.Context,
	conn bus.Conn,
	spec domain.StatusQuerySpec,
	policy retry.Policy,
) (bool, error) {
	return retry.Do(ctx, statusOperation, policy, func(ctx context.Context) (bool, error) {
		value, err := conn.GetProperty(ctx, spec)
		if err != nil {
			return false, apperr.Classify(err)
		}
		return ExtractValue(value)
	})
}
