package ports

import (
	"context"
	"time"
)

// EventPublisher publishes audit events to other services
type EventPublisher interface {
	PublishLogin(ctx context.Context, address, sessionHash string) error
	PublishLogout(ctx context.Context, address string) error
	PublishTokenIssued(ctx context.Context, subject, audience, tokenID string, expiresAt time.Time) error
}
