package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salescatalog/internal/seed"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueSeed = "jobs:seed"

	JobTypeSeed = "seed"

	// maxJobAttempts is how many times a failing job runs before it goes to the DLQ.
	maxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt string          `json:"enqueued_at"` // RFC 3339
}

// SeedJobPayload records who asked for a seed run.
type SeedJobPayload struct {
	Trigger   string `json:"trigger"` // api | schedule | startup
	RequestID string `json:"request_id,omitempty"`
}

// SeedRunner is satisfied by *seed.Seeder.
type SeedRunner interface {
	Run(ctx context.Context) (seed.Result, error)
}

// WorkerHandlers maps job types to the code that executes them.
type WorkerHandlers struct {
	Seed SeedRunner
	// Alerts is told when a seed job is dead-lettered; nil disables it.
	Alerts *AlertNotifier
}

// listPusher is the subset of *redis.Client used to (re)enqueue jobs.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb listPusher
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueSeed pushes a seed job to Redis.
func (d *Dispatcher) EnqueueSeed(ctx context.Context, payload SeedJobPayload) error {
	return enqueue(ctx, d.rdb, QueueSeed, JobTypeSeed, payload, 0)
}

func enqueue(ctx context.Context, q listPusher, queue, jobType string, payload interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, q, queue, Job{
		Type:       jobType,
		Payload:    data,
		Attempts:   attempts,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func push(ctx context.Context, q listPusher, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the seed queue.
// Each goroutine blocks on BRPOP, so idle workers cost no CPU.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueSeed).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: brpop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			if err := processJob(ctx, rdb, handlers, result[0], result[1]); err != nil {
				log.Warn().Err(err).Int("worker", id).Msg("worker: job failed")
			}
		}
	}
}

// processJob executes one job. A failed job is pushed back with its attempt
// count raised, or moved to the DLQ once maxJobAttempts is reached.
func processJob(ctx context.Context, q listPusher, handlers *WorkerHandlers, queue, raw string) error {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, q, queue, Job{Type: "unknown", Payload: quoted}, "malformed job: "+err.Error())
		return err
	}
	log.Info().Str("type", job.Type).Str("queue", queue).Int("attempt", job.Attempts+1).Msg("processing job")

	var err error
	switch job.Type {
	case JobTypeSeed:
		if handlers == nil || handlers.Seed == nil {
			err = errors.New("no seed handler configured")
			break
		}
		_, err = handlers.Seed.Run(ctx)
		if errors.Is(err, seed.ErrAlreadyRunning) {
			log.Info().Msg("seed job skipped: a run is already in progress")
			return nil
		}
	default:
		err = fmt.Errorf("unknown job type %q", job.Type)
		SendToDLQ(ctx, q, queue, job, err.Error())
		return err
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		// Shutting down: keep the job for the next process.
		_ = push(context.WithoutCancel(ctx), q, queue, job)
		return err
	}

	job.Attempts++
	if job.Attempts >= maxJobAttempts {
		reason := fmt.Sprintf("max attempts (%d) exceeded: %s", maxJobAttempts, err)
		entry := SendToDLQ(ctx, q, queue, job, reason)
		if handlers != nil && job.Type == JobTypeSeed {
			handlers.Alerts.SeedFailed(entry.Trigger, entry.Attempts, reason)
		}
		return err
	}
	if perr := push(ctx, q, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("worker: failed to requeue job")
	}
	return err
}
