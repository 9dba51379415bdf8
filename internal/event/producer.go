package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/wonjun/stiky/internal/domain"
	pkgkafka "github.com/wonjun/stiky/pkg/kafka"
	"github.com/wonjun/stiky/pkg/logger"
)

// Kafka topic constants for account events.
const (
	TopicAccountRegistered   = "stiky.account.registered"
	TopicAccountSocialLinked = "stiky.account.social_linked"
)

// Aggregate type constant.
const AggregateTypeAccount = "account"

// Source identifier for events originating from this service.
const SourceStiky = "stiky"

// AccountRegisteredData is the payload for an account.registered event.
type AccountRegisteredData struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
}

// AccountSocialLinkedData is the payload for an account.social_linked event.
type AccountSocialLinkedData struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Provider   string `json:"provider"`
	LinkedWith string `json:"linked_with"`
}

// Publisher emits account lifecycle events.
type Publisher interface {
	PublishAccountRegistered(ctx context.Context, account *domain.Account) error
	PublishAccountSocialLinked(ctx context.Context, account *domain.Account, provider string) error
}

type eventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes account events to Kafka.
type Producer struct {
	kafka  eventWriter
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishAccountRegistered publishes an account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, a *domain.Account) error {
	data := AccountRegisteredData{
		ID:       a.ID,
		Email:    a.Email,
		Nickname: a.Nickname,
		Role:     a.Role,
		Provider: a.Provider,
	}
	return p.publish(ctx, TopicAccountRegistered, a.ID, data)
}

// PublishAccountSocialLinked publishes an account.social_linked event.
func (p *Producer) PublishAccountSocialLinked(ctx context.Context, a *domain.Account, provider string) error {
	data := AccountSocialLinkedData{
		ID:         a.ID,
		Email:      a.Email,
		Provider:   a.Provider,
		LinkedWith: provider,
	}
	return p.publish(ctx, TopicAccountSocialLinked, a.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic string, accountID int64, data any) error {
	evt, err := pkgkafka.NewEvent(topic, strconv.FormatInt(accountID, 10), AggregateTypeAccount, SourceStiky, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("event_id", evt.EventID),
	)
	return nil
}

// NoopPublisher drops every event. It is wired when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishAccountRegistered(context.Context, *domain.Account) error { return nil }

func (NoopPublisher) PublishAccountSocialLinked(context.Context, *domain.Account, string) error {
	return nil
}
