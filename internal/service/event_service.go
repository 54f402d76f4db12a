package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/pkg/events"
	"github.com/noah-isme/edustream-api/pkg/jobs"
)

type eventPublisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}

type eventQueue interface {
	TryEnqueue(job jobs.Job) error
}

// EventNotifier emits domain events without blocking or failing the calling operation.
type EventNotifier interface {
	Emit(event string, data interface{})
}

// EventService publishes domain events asynchronously through a job queue.
type EventService struct {
	queue   eventQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEventService constructs an EventService. The queue must be built with PublishHandler.
func NewEventService(queue eventQueue, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{queue: queue, metrics: metrics, logger: logger}
}

// Emit enqueues the event. A full or stopped queue drops the event with a log entry.
func (s *EventService) Emit(event string, data interface{}) {
	env := events.NewEnvelope(event, data)
	err := s.queue.TryEnqueue(jobs.Job{ID: env.ID, Type: event, Payload: env})
	if err == nil {
		return
	}
	s.metrics.RecordEvent(event, "dropped")
	if errors.Is(err, jobs.ErrQueueFull) {
		s.logger.Warn("event queue full, dropping event", zap.String("event", event), zap.String("event_id", env.ID))
		return
	}
	s.logger.Error("failed to enqueue event", zap.String("event", event), zap.Error(err))
}

// PublishHandler returns the queue handler that sends envelopes to the bus.
func PublishHandler(publisher eventPublisher, metrics *MetricsService) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		env, ok := job.Payload.(events.Envelope)
		if !ok {
			return nil
		}
		if err := publisher.Publish(ctx, env); err != nil {
			return err
		}
		metrics.RecordEvent(env.Event, "published")
		return nil
	}
}

// PublishFailureHook counts events that exhausted their retries.
func PublishFailureHook(metrics *MetricsService) jobs.FailureHook {
	return func(job jobs.Job, _ error) {
		metrics.RecordEvent(job.Type, "failed")
	}
}

type noopNotifier struct{}

func (noopNotifier) Emit(string, interface{}) {}
