package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/ethauth/ports"
)

const (
	TopicLogin       = "ethauth.login"
	TopicLogout      = "ethauth.logout"
	TopicTokenIssued = "ethauth.token_issued"
)

// LoginEvent is published after a successful sign-in
type LoginEvent struct {
	Address     string    `json:"address"`
	SessionHash string    `json:"session_hash"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// LogoutEvent is published when a session drops its address
type LogoutEvent struct {
	Address    string    `json:"address"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TokenIssuedEvent is published for every minted token. It deliberately
// carries the subject and not the address.
type TokenIssuedEvent struct {
	Subject   string    `json:"subject"`
	Audience  string    `json:"audience"`
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address, sessionHash string) error {
	return p.publish(ctx, TopicLogin, LoginEvent{
		Address:     address,
		SessionHash: sessionHash,
		OccurredAt:  p.now().UTC(),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string) error {
	return p.publish(ctx, TopicLogout, LogoutEvent{
		Address:    address,
		OccurredAt: p.now().UTC(),
	})
}

// PublishTokenIssued publishes a token issuance event
func (p *WatermillPublisher) PublishTokenIssued(ctx context.Context, subject, audience, tokenID string, expiresAt time.Time) error {
	return p.publish(ctx, TopicTokenIssued, TokenIssuedEvent{
		Subject:   subject,
		Audience:  audience,
		TokenID:   tokenID,
		ExpiresAt: expiresAt.UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event. It is used when events are disabled.
type NopPublisher struct{}

var _ ports.EventPublisher = NopPublisher{}

func (NopPublisher) PublishLogin(context.Context, string, string) error { return nil }

func (NopPublisher) PublishLogout(context.Context, string) error { return nil }

func (NopPublisher) PublishTokenIssued(context.Context, string, string, string, time.Time) error {
	return nil
}
