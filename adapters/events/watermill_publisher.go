// Package events publishes session lifecycle events so other instances can
// react to logins and logouts.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/silentoaq/zuvi-auth/ports"
)

const (
	// LoginTopic carries SessionEvent payloads for successful logins.
	LoginTopic = "zuvi.auth.login"

	// LogoutTopic carries SessionEvent payloads for explicit logouts.
	LogoutTopic = "zuvi.auth.logout"
)

// SessionEvent is the payload published on login and logout.
type SessionEvent struct {
	PublicKey string `json:"publicKey"`
	TokenID   string `json:"tokenId"`
	At        int64  `json:"at"` // unix seconds
}

// WatermillPublisher implements ports.EventPublisher over a Watermill
// publisher.
type WatermillPublisher struct {
	publisher message.Publisher
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, publicKey, tokenID string) error {
	return p.publish(LoginTopic, publicKey, tokenID)
}

// PublishLogout publishes a logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, publicKey, tokenID string) error {
	return p.publish(LogoutTopic, publicKey, tokenID)
}

func (p *WatermillPublisher) publish(topic, publicKey, tokenID string) error {
	event := SessionEvent{
		PublicKey: publicKey,
		TokenID:   tokenID,
		At:        time.Now().Unix(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
