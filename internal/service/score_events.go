package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lingua-api/internal/middleware"
	"github.com/noah-isme/gema-lingua-api/internal/observability"
)

// ScoreRecordedEvent is broadcast after a score is stored.
type ScoreRecordedEvent struct {
	EventID              string    `json:"event_id"`
	Kind                 string    `json:"kind"`
	UserID               uint      `json:"user_id"`
	TaskID               uint      `json:"task_id"`
	QuestionID           uint      `json:"question_id,omitempty"`
	AttemptNumber        int       `json:"attempt_number"`
	IsCorrect            bool      `json:"is_correct"`
	PointsEarned         float64   `json:"points_earned"`
	MaxPoints            float64   `json:"max_points"`
	RequiresManualReview bool      `json:"requires_manual_review"`
	RecordedAt           time.Time `json:"recorded_at"`
	CorrelationID        string    `json:"correlation_id,omitempty"`
}

// Score event kinds.
const (
	ScoreEventQuestion = "question"
	ScoreEventHolistic = "holistic"
)

// ScoreEventPublisher announces stored scores. Publishing is best effort and never fails the caller.
type ScoreEventPublisher interface {
	PublishScoreRecorded(ctx context.Context, event ScoreRecordedEvent)
}

type scoreEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewScoreEventPublisher fans score events out to Redis pub/sub and NATS. Either transport may be nil.
func NewScoreEventPublisher(redisClient *redis.Client, channel string, natsConn *nats.Conn, subject string, logger zerolog.Logger) ScoreEventPublisher {
	return &scoreEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "score_event_publisher").Logger(),
		now:          time.Now,
	}
}

func (p *scoreEventPublisher) PublishScoreRecorded(ctx context.Context, event ScoreRecordedEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.RecordedAt.IsZero() {
		event.RecordedAt = p.now().UTC()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode score event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.ScoreEventsPublished().WithLabelValues("redis", "error").Inc()
			p.logger.Warn().Err(err).Str("event_id", event.EventID).Msg("failed to publish score event to redis")
		} else {
			observability.ScoreEventsPublished().WithLabelValues("redis", "ok").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.ScoreEventsPublished().WithLabelValues("nats", "error").Inc()
			p.logger.Warn().Err(err).Str("event_id", event.EventID).Msg("failed to publish score event to nats")
		} else {
			observability.ScoreEventsPublished().WithLabelValues("nats", "ok").Inc()
		}
	}
}

type noopScoreEventPublisher struct{}

func (noopScoreEventPublisher) PublishScoreRecorded(context.Context, ScoreRecordedEvent) {}
