package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	job              *IsochroneJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Job              *IsochroneJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Runs are long; lease extension must outlive the job timeout.
	subscriber.ReceiveSettings.MaxOutstandingMessages = cfg.Job.config.MaxConcurrentJobs
	subscriber.ReceiveSettings.MaxExtension = cfg.Job.config.JobTimeout + 5*time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		job:              cfg.Job,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if h.handle(ctx, msg.Data, logger) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// handle processes one message body and reports whether it should be acked.
// Only failures that may clear up on redelivery are nacked.
func (h *PubSubHandler) handle(ctx context.Context, data []byte, logger zerolog.Logger) bool {
	startTime := time.Now()

	logger.Debug().Msg("received pubsub message")

	var jobMsg JobMessage
	if err := json.Unmarshal(data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return true
	}

	var err error
	switch jobMsg.JobType {
	case JobTypeIsochroneRun:
		_, err = h.job.Run(ctx, jobMsg)
	case JobTypeHealthCheck:
		err = h.job.HealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		return true
	}

	if err != nil {
		retry := IsRetryable(err)
		logger.Error().
			Err(err).
			Str("job_type", jobMsg.JobType).
			Bool("retry", retry).
			Msg("job failed")
		return !retry
	}

	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	return true
}
