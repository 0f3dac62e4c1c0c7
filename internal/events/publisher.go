package events

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"submissions-service/internal/models"
)

// Submission event types
const (
	BulkCompleted  = "submission.bulk.completed"
	BulkRolledBack = "submission.bulk.rolled_back"
)

const streamName = "SUBMISSION_EVENTS"

// BulkEvent is the payload published for terminal batch outcomes.
type BulkEvent struct {
	EventID      string    `json:"eventId"`
	EventType    string    `json:"eventType"`
	TenantID     string    `json:"tenantId"`
	ClientID     string    `json:"clientId"`
	BatchID      uuid.UUID `json:"batchId"`
	OrderCount   int       `json:"orderCount"`
	PointsSpent  int       `json:"pointsSpent"`
	NewBalance   int       `json:"newBalance"`
	RolledBack   bool      `json:"rolledBack"`
	FailureCause string    `json:"failureCause,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher publishes submission events to NATS JetStream.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the submission stream exists.
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("submissions-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	if _, err := js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"submission.>"},
	}); err != nil && err != nats.ErrStreamNameAlreadyInUse {
		logger.WithError(err).Warn("Failed to ensure submission stream (may already exist)")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}

// PublishBulkCompleted publishes a submission.bulk.completed event.
func (p *Publisher) PublishBulkCompleted(ctx context.Context, tenantID, clientID string, result *models.BulkSubmitResult) error {
	return p.publish(ctx, BulkCompleted, tenantID, clientID, result)
}

// PublishBulkRolledBack publishes a submission.bulk.rolled_back event.
func (p *Publisher) PublishBulkRolledBack(ctx context.Context, tenantID, clientID string, result *models.BulkSubmitResult) error {
	return p.publish(ctx, BulkRolledBack, tenantID, clientID, result)
}

func (p *Publisher) publish(ctx context.Context, eventType, tenantID, clientID string, result *models.BulkSubmitResult) error {
	event := BulkEvent{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		TenantID:     tenantID,
		ClientID:     clientID,
		BatchID:      result.BatchID,
		OrderCount:   len(result.Rows),
		PointsSpent:  result.PointsSpent,
		NewBalance:   result.NewBalance,
		RolledBack:   result.RolledBack,
		FailureCause: result.FailureReason,
		Timestamp:    time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := p.js.Publish(eventType, data, nats.Context(ctx)); err != nil {
		p.logger.WithError(err).WithField("event_type", eventType).Error("Failed to publish event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"event_type": eventType,
		"tenant_id":  tenantID,
		"batch_id":   event.BatchID,
	}).Debug("Published submission event")
	return nil
}
