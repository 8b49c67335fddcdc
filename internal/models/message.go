package models

import "time"

// Message is immutable once stored. CreatedAt is assigned by the storage
// layer at insert time and orders the conversation history.
type Message struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	Content        string    `bson:"content" json:"content"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
