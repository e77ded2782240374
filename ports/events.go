package ports

import "context"

// EventPublisher notifies other instances about session lifecycle changes.
type EventPublisher interface {
	PublishLogin(ctx context.Context, publicKey string, tokenID string) error
	PublishLogout(ctx context.Context, publicKey string, tokenID string) error
}
