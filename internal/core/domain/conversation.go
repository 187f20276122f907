package domain

import "time"

// Conversation is a two-party messaging thread. Members always holds
// exactly the two participant ids.
type Conversation struct {
	ID        string    `json:"id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Other returns the participant that is not userID, or "" when userID
// is not a member.
func (c *Conversation) Other(userID string) string {
	for _, m := range c.Members {
		if m != userID {
			return m
		}
	}
	return ""
}

// Has reports whether userID is one of the two participants.
func (c *Conversation) Has(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Message belongs to exactly one conversation; sender and receiver are
// always the conversation's two participants.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
