package models

import "time"

// ChatPreview is a conversation enriched for list rendering: the counterpart
// profile plus the newest message, if any.
type ChatPreview struct {
	Conversation `bson:",inline"`
	OtherUser    *User    `json:"other_user"`
	LatestMsg    *Message `json:"latest_msg,omitempty"`
}

// SortTime is the recency used to order previews: the latest message's
// timestamp, falling back to the conversation's own creation time.
func (p *ChatPreview) SortTime() time.Time {
	if p.LatestMsg != nil {
		return p.LatestMsg.CreatedAt
	}
	return p.CreatedAt
}
