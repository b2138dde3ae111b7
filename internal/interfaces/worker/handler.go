// Package worker turns fragmentation job messages into fragmentation results.
package worker

import (
	"context"
	"time"

	appFrag "github.com/turtacn/MolFrag/internal/application/fragmentation"
	"github.com/turtacn/MolFrag/internal/infrastructure/database/redis"
	"github.com/turtacn/MolFrag/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolFrag/pkg/errors"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// SourceName identifies the worker in published envelopes.
const SourceName = "molfrag-worker"

// Config holds the job handler parameters.
type Config struct {
	ResultTopic string
	// JobTimeout bounds one fragmentation.  A job that hits it publishes the
	// partial result with cancelled set.
	JobTimeout time.Duration
}

// Option configures a JobHandler.
type Option func(*JobHandler)

// WithLocker takes a lock per job ID so that a redelivered job is not
// fragmented by two workers at once.
func WithLocker(l redis.Locker) Option {
	return func(h *JobHandler) { h.locker = l }
}

// WithMetrics records message outcomes.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(h *JobHandler) { h.metrics = m }
}

// JobHandler consumes fragment.requested envelopes carrying a
// fragment.JobRequest and publishes a fragment.JobResult for each.
type JobHandler struct {
	cfg       Config
	svc       appFrag.Service
	publisher kafka.Publisher
	locker    redis.Locker
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(cfg Config, svc appFrag.Service, publisher kafka.Publisher, logger logging.Logger, opts ...Option) *JobHandler {
	if cfg.ResultTopic == "" {
		cfg.ResultTopic = kafka.TopicFragmentResults
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	h := &JobHandler{
		cfg:       cfg,
		svc:       svc,
		publisher: publisher,
		logger:    logger.Named("worker"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements kafka.MessageHandler.  Malformed messages and jobs the
// service rejects as invalid are reported without retry; infrastructure
// failures are returned so that the consumer retries and finally
// dead-letters the message.
func (h *JobHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()
	status, err := h.handle(ctx, msg)
	if h.metrics != nil {
		prometheus.RecordMessage(h.metrics, msg.Topic, status, time.Since(start))
		if err != nil {
			prometheus.RecordError(h.metrics, "worker", errors.GetCode(err).String())
		}
	}
	return err
}

func (h *JobHandler) handle(ctx context.Context, msg *kafka.Message) (string, error) {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return "invalid", err
	}
	if env.EventType != kafka.EventFragmentRequested {
		h.logger.Warn("skipping unexpected event type",
			logging.String("event_type", env.EventType),
			logging.String("event_id", env.EventID))
		return "skipped", nil
	}

	var job fragment.JobRequest
	if err := env.DecodePayload(&job); err != nil {
		return "invalid", errors.Wrap(err, errors.ErrCodeValidation, "malformed job payload")
	}
	if job.JobID == "" {
		job.JobID = env.EventID
	}
	if job.Request.ID == "" {
		job.Request.ID = job.JobID
	}
	log := h.logger.With(logging.String("job_id", job.JobID))

	if h.locker != nil {
		lock := h.locker.NewLock("job:"+job.JobID, redis.WithLockTTL(time.Minute), redis.WithWatchdog(true))
		ok, err := lock.TryLock(ctx)
		if err != nil {
			return "error", err
		}
		if !ok {
			log.Info("job already in progress elsewhere, skipping")
			return "skipped", nil
		}
		defer func() {
			if err := lock.Unlock(context.Background()); err != nil {
				log.Warn("failed to release job lock", logging.Err(err))
			}
		}()
	}

	jobCtx, cancel := context.WithTimeout(ctx, h.cfg.JobTimeout)
	resp, err := h.svc.Fragment(jobCtx, &job.Request)
	cancel()
	if ctx.Err() != nil {
		// Shutdown: leave the offset uncommitted for redelivery.
		return "cancelled", ctx.Err()
	}

	result := &fragment.JobResult{JobID: job.JobID}
	eventType := kafka.EventFragmentCompleted
	switch {
	case err == nil:
		result.Status = fragment.JobSucceeded
		result.Result = resp
	case errors.IsValidation(err):
		result.Status = fragment.JobFailed
		result.Error = fragment.NewErrorResponse(err)
		eventType = kafka.EventFragmentFailed
	default:
		return "error", err
	}

	if err := h.publish(ctx, env, eventType, result); err != nil {
		return "error", err
	}

	if result.Status == fragment.JobFailed {
		log.Info("job rejected", logging.String("code", result.Error.Code), logging.String("error", result.Error.Message))
		return "rejected", nil
	}
	log.Info("job fragmented",
		logging.Int("records", len(resp.Records)),
		logging.Bool("cancelled", resp.Cancelled),
		logging.Bool("cached", resp.Cached))
	return "success", nil
}

func (h *JobHandler) publish(ctx context.Context, req *kafka.EventEnvelope, eventType string, result *fragment.JobResult) error {
	env, err := kafka.NewEventEnvelope(eventType, SourceName, result)
	if err != nil {
		return err
	}
	env.CorrelationID = req.CorrelationID
	if env.CorrelationID == "" {
		env.CorrelationID = req.EventID
	}
	out, err := env.ToMessage(h.cfg.ResultTopic, result.JobID)
	if err != nil {
		return err
	}
	if err := h.publisher.Publish(ctx, out); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to publish job result")
	}
	return nil
}

// NewJobMessage wraps job in a fragment.requested envelope addressed to
// topic.  Producers of jobs use it so that the wire format stays in one
// place.
func NewJobMessage(topic, source string, job *fragment.JobRequest) (*kafka.ProducerMessage, error) {
	if job == nil || job.JobID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "job id is required")
	}
	env, err := kafka.NewEventEnvelope(kafka.EventFragmentRequested, source, job)
	if err != nil {
		return nil, err
	}
	env.CorrelationID = job.JobID
	return env.ToMessage(topic, job.JobID)
}

//Personal.AI order the ending
