package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobTicketEmail = "ticket_email"

	// MaxAttempts is how many times a job runs before it is dead-lettered.
	MaxAttempts = 5
)

// ErrSinCola is returned by enqueue operations when Redis is not configured.
var ErrSinCola = errors.New("worker: cola no disponible")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// TicketEmailPayload asks for the receipt of a committed sale to be mailed.
type TicketEmailPayload struct {
	VentaID string `json:"venta_id"`
	ToEmail string `json:"to_email"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueTicketEmail pushes a receipt email job to Redis.
func (d *Dispatcher) EnqueueTicketEmail(ctx context.Context, payload TicketEmailPayload) error {
	return d.enqueue(ctx, QueueEmail, JobTicketEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return ErrSinCola
	}
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

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool consumes the job queues and routes each job to its registered handler.
type Pool struct {
	rdb      *redis.Client
	m        *metrics.Metrics
	mu       sync.RWMutex
	handlers map[string]Handler
	now      func() time.Time
}

// NewPool: m may be nil.
func NewPool(rdb *redis.Client, m *metrics.Metrics) *Pool {
	return &Pool{rdb: rdb, m: m, handlers: map[string]Handler{}, now: time.Now}
}

// Register binds a job type to its handler. Later calls replace earlier ones.
func (p *Pool) Register(jobType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = h
}

func (p *Pool) handler(jobType string) (Handler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handlers[jobType]
	return h, ok
}

// Start launches numWorkers goroutines consuming the queues plus the retry
// scheduler. Each goroutine blocks on BRPOP — zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if p.rdb == nil {
		log.Warn().Msg("worker pool disabled: no redis")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i)
	}
	StartRetryCron(ctx, p.rdb, []string{QueueEmail})
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	queues := []string{QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

// processJob runs one job. Failures go back through the retry schedule
// until MaxAttempts, then to the DLQ.
func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.m.RecordJob("desconocido", "invalid")
		return
	}
	h, ok := p.handler(job.Type)
	if !ok {
		log.Error().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		p.deadLetter(ctx, queue, job, "sin handler")
		return
	}

	job.Attempts++
	if err := h(ctx, job.Payload); err != nil {
		log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed")
		if job.Attempts >= MaxAttempts || errors.Is(err, ErrPermanente) {
			p.deadLetter(ctx, queue, job, err.Error())
			return
		}
		p.retry(ctx, queue, job)
		return
	}
	p.m.RecordJob(job.Type, "ok")
	log.Info().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}

func (p *Pool) retry(ctx context.Context, queue string, job Job) {
	p.m.RecordJob(job.Type, "retry")
	if p.rdb == nil {
		return
	}
	encoded, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Msg("retry: failed to marshal job")
		return
	}
	at := p.now().Add(backoff(job.Attempts))
	if err := scheduleRetry(ctx, p.rdb, queue, encoded, at); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("retry: failed to schedule")
	}
}

func (p *Pool) deadLetter(ctx context.Context, queue string, job Job, reason string) {
	p.m.RecordJob(job.Type, "dead")
	if p.rdb == nil {
		return
	}
	SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, reason, job.Attempts)
}

// backoff doubles from 10s: 10s, 20s, 40s, 80s.
func backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(10<<(attempt-1)) * time.Second
}

// ErrPermanente marks a failure that retrying cannot fix.
var ErrPermanente = errors.New("worker: fallo permanente")

func permanente(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPermanente, fmt.Sprintf(format, args...))
}
