package worker

import (
	"context"
	"errors"

	"salescatalog/internal/seed"

	"github.com/rs/zerolog/log"
)

// SeedTrigger starts seed runs. With a dispatcher the run is queued in Redis;
// without one it runs in a goroutine bound to the process lifetime.
type SeedTrigger struct {
	dispatcher *Dispatcher
	runner     SeedRunner
	lifetime   context.Context

	// Alerts is told when an in-process run fails; nil disables it.
	Alerts *AlertNotifier
}

// NewSeedTrigger: dispatcher may be nil. lifetime is cancelled on shutdown.
func NewSeedTrigger(lifetime context.Context, dispatcher *Dispatcher, runner SeedRunner) *SeedTrigger {
	return &SeedTrigger{dispatcher: dispatcher, runner: runner, lifetime: lifetime}
}

// Trigger starts a run and reports whether it was queued.
func (t *SeedTrigger) Trigger(ctx context.Context, payload SeedJobPayload) (bool, error) {
	if t.dispatcher != nil {
		if err := t.dispatcher.EnqueueSeed(ctx, payload); err != nil {
			return false, err
		}
		log.Info().Str("trigger", payload.Trigger).Msg("seed job queued")
		return true, nil
	}

	go func() {
		_, err := t.runner.Run(t.lifetime)
		switch {
		case err == nil:
		case errors.Is(err, seed.ErrAlreadyRunning):
			log.Info().Str("trigger", payload.Trigger).Msg("seed skipped: a run is already in progress")
		case errors.Is(err, context.Canceled):
			log.Info().Str("trigger", payload.Trigger).Msg("seed cancelled due to shutdown")
		default:
			log.Warn().Err(err).Str("trigger", payload.Trigger).Msg("background seed failed")
			t.Alerts.SeedFailed(payload.Trigger, 1, err.Error())
		}
	}()
	return false, nil
}
