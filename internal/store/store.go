// Package store defines the persistence contract of the development
// server. The client itself never touches it; history reaches the
// client over the REST API.
package store

import (
	"context"

	"github.com/ethoschat/ethoschat/internal/chat"
)

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message.
	SaveMessage(ctx context.Context, msg chat.Message) error

	// ListMessages returns up to limit of a room's oldest messages in
	// timestamp order.
	ListMessages(ctx context.Context, roomID string, limit int) ([]chat.Message, error)

	// Close closes the underlying database connection.
	Close() error
}
