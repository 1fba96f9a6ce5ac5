package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/internal/observability"
)

// DefaultSubmissionSubject is the NATS subject and Redis channel for stored submissions.
const DefaultSubmissionSubject = "submission.created"

// SubmissionPublisher fans out submission events after they are stored.
type SubmissionPublisher interface {
	PublishSubmission(ctx context.Context, event dto.SubmissionEvent)
}

type submissionPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
}

// NewSubmissionPublisher builds a publisher over the optional Redis and NATS connections.
func NewSubmissionPublisher(redisClient *redis.Client, natsConn *nats.Conn, subject string, logger zerolog.Logger) SubmissionPublisher {
	if subject == "" {
		subject = DefaultSubmissionSubject
	}
	return &submissionPublisher{
		redis:        redisClient,
		redisChannel: "devready:" + subject,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "submission_publisher").Logger(),
	}
}

// Delivery is best effort; the submission is already stored when this runs.
func (p *submissionPublisher) PublishSubmission(ctx context.Context, event dto.SubmissionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode submission event")
		return
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.SubmissionEventsFailed().WithLabelValues("redis").Inc()
			p.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("failed to publish submission event to redis")
		}
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.SubmissionEventsFailed().WithLabelValues("nats").Inc()
			p.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("failed to publish submission event to nats")
		}
	}
}
