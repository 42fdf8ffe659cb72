package worker

// scheduler.go
// Cron-driven seed runs. Each tick goes through the SeedTrigger, so scheduled
// runs share the queue, the retry policy and the single-run guard with manual ones.

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartSeedSchedule registers spec (standard 5-field cron, or descriptors such
// as "@every 1h") and starts the scheduler. It stops when ctx is done.
// An empty spec disables scheduling and returns a nil scheduler.
func StartSeedSchedule(ctx context.Context, spec string, trigger *SeedTrigger) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		if _, err := trigger.Trigger(ctx, SeedJobPayload{Trigger: "schedule"}); err != nil {
			log.Warn().Err(err).Msg("scheduler: failed to trigger seed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info().Str("schedule", spec).Msg("scheduler: seed schedule started")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("scheduler: shutting down")
	}()
	return c, nil
}
