package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that still fail after withRetry land in dlq:{queue}.
const DLQPrefix = "dlq:"

// maxReplays bounds how often a dead-lettered job goes back to its queue.
const maxReplays = 5

// DeadLetter is a failed job plus what is needed to decide whether to replay it.
type DeadLetter struct {
	Queue    string    `json:"queue"`
	Job      Job       `json:"job"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
	Replays  int       `json:"replays"`
}

func deadLetterKey(queue string) string { return DLQPrefix + queue }

// deadLetter parks a failed job, keeping its replay count.
func deadLetter(ctx context.Context, rdb *redis.Client, queue string, job Job, cause error) {
	entry := DeadLetter{
		Queue:    queue,
		Job:      job,
		Reason:   cause.Error(),
		FailedAt: time.Now().UTC(),
		Replays:  job.Replays,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.LPush(ctx, deadLetterKey(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("job_type", job.Type).Msg("dlq: push failed, job lost")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Int("replays", job.Replays).
		Err(cause).
		Msg("dlq: job dead-lettered")
}

// takeDeadLetter pops the oldest entry of queue's DLQ. ok is false when it is empty.
func takeDeadLetter(ctx context.Context, rdb *redis.Client, queue string) (entry DeadLetter, raw []byte, ok bool, err error) {
	raw, err = rdb.RPop(ctx, deadLetterKey(queue)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entry, nil, false, nil
	}
	if err != nil {
		return entry, nil, false, err
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, raw, false, err
	}
	return entry, raw, true, nil
}

// DeadLetterDepth reports how many jobs are parked for queue.
func DeadLetterDepth(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, deadLetterKey(queue)).Result()
}
