package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/backstage/foodshare/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const source = "foodshare-dashboard"

// Event types published after successful writes
const (
	EventListingCreated     = "listing.created"
	EventListingUpdated     = "listing.updated"
	EventListingDeleted     = "listing.deleted"
	EventClaimCreated       = "claim.created"
	EventClaimStatusChanged = "claim.status_changed"
	EventClaimDeleted       = "claim.deleted"
	EventProviderCreated    = "provider.created"
	EventProviderDeleted    = "provider.deleted"
	EventReceiverCreated    = "receiver.created"
	EventReceiverDeleted    = "receiver.deleted"
	EventImportCompleted    = "import.completed"
)

// Event is a domain event envelope
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEvent creates an event stamped with a fresh id and the current time
func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher sends domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// serviceBusPublisher implements Publisher on an Azure Service Bus queue
type serviceBusPublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// logPublisher only logs events, for local development
type logPublisher struct{}

// NewPublisher creates an Azure Service Bus publisher. Without a connection
// string events are logged instead.
func NewPublisher(cfg config.AzureConfig) (Publisher, error) {
	if cfg.QueueConnStr == "" {
		return &logPublisher{}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusPublisher{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// NewLogPublisher returns a publisher that only logs events
func NewLogPublisher() Publisher {
	return &logPublisher{}
}

// Publish sends the event to the queue
func (s *serviceBusPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	messageID := event.ID.String()
	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        data,
		MessageID:   &messageID,
		ContentType: &contentType,
		Subject:     &event.Type,
		ApplicationProperties: map[string]interface{}{
			"source": source,
			"time":   event.OccurredAt.Format(time.RFC3339),
		},
	}

	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrapf(err, "failed to send %s event to %s", event.Type, s.queueName)
	}
	return nil
}

// Close closes the sender and the client
func (s *serviceBusPublisher) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

func (l *logPublisher) Publish(_ context.Context, event Event) error {
	log.Debug().
		Str("event_id", event.ID.String()).
		Str("type", event.Type).
		Interface("payload", event.Payload).
		Msg("Event published")
	return nil
}

func (l *logPublisher) Close() error { return nil }
