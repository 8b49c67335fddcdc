package models

import "time"

// Conversation pairs exactly two distinct users. PairKey is the canonical
// form of the unordered pair and is unique-indexed: (A,B) and (B,A) collapse
// to the same key, so storage alone rules out duplicate conversations even
// under concurrent creation.
type Conversation struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	ParticipantOne string    `bson:"participant_one" json:"participant_one"`
	ParticipantTwo string    `bson:"participant_two" json:"participant_two"`
	PairKey        string    `bson:"pair_key" json:"-"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// PairKey canonicalizes an unordered user-id pair.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantOne == userID {
		return c.ParticipantTwo
	}
	return c.ParticipantOne
}

// Has reports whether userID is one of the two participants.
func (c *Conversation) Has(userID string) bool {
	return c.ParticipantOne == userID || c.ParticipantTwo == userID
}
