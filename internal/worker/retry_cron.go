package worker

// retry_cron.go
// Background goroutine that moves dead-lettered events back onto the events
// queue once the broker is reachable again. Uses the circuit breaker state to
// avoid replaying into a broker that is still down.

import (
	"context"
	"encoding/json"
	"time"

	"kioskpos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	replayTickInterval = 30 * time.Second
	replayBatchSize    = 20
)

// ReplayConfig holds all dependencies for the replay goroutine.
type ReplayConfig struct {
	RDB *redis.Client
	CB  *infra.CircuitBreaker
}

// StartEventReplay ticks every 30s and re-enqueues up to replayBatchSize
// dead-lettered events. It respects the context for graceful shutdown.
func StartEventReplay(ctx context.Context, cfg ReplayConfig) {
	go func() {
		ticker := time.NewTicker(replayTickInterval)
		defer ticker.Stop()

		log.Info().Msg("event_replay: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("event_replay: shutting down")
				return
			case <-ticker.C:
				replayEvents(ctx, cfg)
			}
		}
	}()
}

func replayEvents(ctx context.Context, cfg ReplayConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("event_replay: circuit breaker is open, skipping tick")
		return
	}

	replayed, dropped := 0, 0
	for i := 0; i < replayBatchSize; i++ {
		entry, raw, ok, err := takeDeadLetter(ctx, cfg.RDB, QueueEvents)
		if err != nil {
			log.Warn().Err(err).Msg("event_replay: dropping unreadable dead letter")
			continue
		}
		if !ok {
			break
		}
		if entry.Replays >= maxReplays {
			dropped++
			log.Error().
				Str("job_type", entry.Job.Type).
				Str("reason", entry.Reason).
				Msg("event_replay: replay budget exhausted, event discarded")
			continue
		}

		job := entry.Job
		job.Replays++
		data, err := json.Marshal(job)
		if err != nil {
			continue
		}
		if err := cfg.RDB.LPush(ctx, QueueEvents, data).Err(); err != nil {
			// put it back for the next tick
			_ = cfg.RDB.RPush(ctx, deadLetterKey(QueueEvents), raw).Err()
			log.Warn().Err(err).Msg("event_replay: re-enqueue failed")
			break
		}
		replayed++
	}
	if replayed > 0 || dropped > 0 {
		log.Info().Int("replayed", replayed).Int("dropped", dropped).Msg("event_replay: tick done")
	}
}
