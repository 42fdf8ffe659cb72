package worker

// dlq.go: dead letter queue
// Seed jobs that exhaust their attempts, and payloads that are not jobs at
// all, are parked in dlq:{original_queue} until someone looks at them.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry is one dead-lettered job. Trigger and RequestID are copied from a
// seed payload so an operator can tell which run gave up.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Trigger       string          `json:"trigger,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	Attempts      int             `json:"attempts"`
	EnqueuedAt    string          `json:"enqueued_at,omitempty"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
}

func deadLetter(queue string, job Job, reason string, failedAt time.Time) DLQEntry {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		Attempts:      job.Attempts,
		EnqueuedAt:    job.EnqueuedAt,
		FailedAt:      failedAt.UTC().Format(time.RFC3339),
	}
	if job.Type == JobTypeSeed {
		var p SeedJobPayload
		if json.Unmarshal(job.Payload, &p) == nil {
			entry.Trigger = p.Trigger
			entry.RequestID = p.RequestID
		}
	}
	return entry
}

// SendToDLQ parks job in the dead letter queue of queue and returns the entry
// it wrote. Push failures are logged only: the job has already failed.
func SendToDLQ(ctx context.Context, q listPusher, queue string, job Job, reason string) DLQEntry {
	entry := deadLetter(queue, job, reason, time.Now())
	dlqKey := DLQPrefix + queue

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to marshal entry")
		return entry
	}
	if err := q.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push entry")
		return entry
	}

	log.Warn().
		Str("dlq_key", dlqKey).
		Str("job_type", entry.JobType).
		Str("trigger", entry.Trigger).
		Int("attempts", entry.Attempts).
		Str("reason", reason).
		Msg("dlq: job dead-lettered")
	return entry
}

// DLQLength is the backlog of dlq:{queue}; /health reports it for the seed queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
