// Package repository owns persistence. Services depend only on the
// interfaces here, so tests run against the in-memory store and production
// runs against Mongo.
package repository

import (
	"context"

	"github.com/fathima-sithara/dm-service/internal/models"
)

type UserRepository interface {
	// BySubject looks a user up by identity-provider subject. apperr.ErrNotFound on miss.
	BySubject(ctx context.Context, subject string) (*models.User, error)
	ByID(ctx context.Context, id string) (*models.User, error)
	// Insert stores a new user and returns its id. Timestamps are assigned here.
	Insert(ctx context.Context, u *models.User) (string, error)
	// UpdateProfile patches name and image only. Email is immutable after first sync.
	UpdateProfile(ctx context.Context, id, name, image string) error
	// SearchByName returns users whose name matches term (case-insensitive
	// substring). A blank term matches everyone.
	SearchByName(ctx context.Context, term string) ([]*models.User, error)
}

type ConversationRepository interface {
	// FindOrCreate returns the unique conversation for the unordered pair
	// (a, b), creating it if absent. The created flag reports whether this
	// call inserted it. Must be safe under concurrent callers racing on the
	// same pair: at most one document per pair key, ever.
	FindOrCreate(ctx context.Context, a, b string) (conv *models.Conversation, created bool, err error)
	ByID(ctx context.Context, id string) (*models.Conversation, error)
	// ByParticipant returns every conversation userID takes part in.
	ByParticipant(ctx context.Context, userID string) ([]*models.Conversation, error)
}

type MessageRepository interface {
	// Insert stores a message, assigning id and creation timestamp.
	Insert(ctx context.Context, m *models.Message) (*models.Message, error)
	// ByConversation returns the full history in ascending creation order.
	ByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	// Latest returns the newest message of a conversation, or (nil, nil)
	// when the conversation has none.
	Latest(ctx context.Context, conversationID string) (*models.Message, error)
}
