package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueTickets = "jobs:tickets"
	QueueEvents  = "jobs:events"

	JobTicket = "ticket"
	JobEvent  = "event"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	// Replays counts trips through the dead letter queue.
	Replays int `json:"replays,omitempty"`
}

// Handler processes one job payload. A returned error sends the job to the DLQ.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb           *redis.Client
	eventsEnabled bool
}

// NewDispatcher returns a dispatcher; with eventsEnabled false, order events
// are dropped instead of queued (no broker configured).
func NewDispatcher(rdb *redis.Client, eventsEnabled bool) *Dispatcher {
	return &Dispatcher{rdb: rdb, eventsEnabled: eventsEnabled}
}

// EnqueueTicket pushes a kitchen ticket job to Redis.
func (d *Dispatcher) EnqueueTicket(ctx context.Context, payload TicketJobPayload) error {
	return d.enqueue(ctx, QueueTickets, JobTicket, payload)
}

// EnqueueOrderEvent pushes a lifecycle event to Redis for publishing.
func (d *Dispatcher) EnqueueOrderEvent(ctx context.Context, ev OrderEvent) error {
	if !d.eventsEnabled {
		return nil
	}
	return d.enqueue(ctx, QueueEvents, JobEvent, ev)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	queues   []string
}

// NewPool registers one handler per job type. Queues without a handler are not consumed.
func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	p := &Pool{rdb: rdb, handlers: handlers}
	if _, ok := handlers[JobTicket]; ok {
		p.queues = append(p.queues, QueueTickets)
	}
	if _, ok := handlers[JobEvent]; ok {
		p.queues = append(p.queues, QueueEvents)
	}
	return p
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if len(p.queues) == 0 {
		log.Warn().Msg("worker pool has no handlers, not starting")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Strs("queues", p.queues).Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("brpop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	if err := p.dispatch(ctx, job); err != nil {
		deadLetter(ctx, p.rdb, queue, job, err)
	}
}

func (p *Pool) dispatch(ctx context.Context, job Job) error {
	h, ok := p.handlers[job.Type]
	if !ok {
		return fmt.Errorf("no handler for job type %q", job.Type)
	}
	log.Debug().Str("type", job.Type).Msg("processing job")
	return h.Process(ctx, job.Payload)
}
