package events

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
)

var _ service.Notifier = (*Fanout)(nil)

// Fanout delivers to every sink, even after one fails, and joins the errors.
type Fanout struct {
	Sinks []service.Notifier

	// Failures, when set, counts failed stages.
	Failures *Metrics
}

func (f *Fanout) OnUserDeleted(ctx context.Context, ev domain.DeletionEvent) error {
	var errs []error
	for _, s := range f.Sinks {
		if err := s.OnUserDeleted(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return f.record("telemetry", errors.Join(errs...))
}

func (f *Fanout) OnUserDeletionHook(ctx context.Context, u domain.PublicUser) error {
	var errs []error
	for _, s := range f.Sinks {
		if err := s.OnUserDeletionHook(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return f.record("hook", errors.Join(errs...))
}

func (f *Fanout) record(stage string, err error) error {
	if err != nil && f.Failures != nil {
		f.Failures.HookFailed(stage)
	}
	return err
}
