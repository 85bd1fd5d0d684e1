package events

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

var _ service.Notifier = LogSink{}

// LogSink writes deletion events to the request logger.
type LogSink struct{}

func (LogSink) OnUserDeleted(ctx context.Context, ev domain.DeletionEvent) error {
	attrs := []any{
		slog.String("actor_id", ev.ActorID),
		slog.String("target_id", ev.TargetID),
		slog.String("prior_status", string(ev.PriorStatus)),
		slog.String("migration_strategy", string(ev.Strategy)),
	}
	if ev.TransfereeID != "" {
		attrs = append(attrs, slog.String("transferee_id", ev.TransfereeID))
	}
	slogx.FromContext(ctx).Info("telemetry: user deleted", attrs...)
	return nil
}

func (LogSink) OnUserDeletionHook(ctx context.Context, u domain.PublicUser) error {
	slogx.FromContext(ctx).Debug("hook: user deleted", slog.String("user_id", u.ID))
	return nil
}
