package notifications

import (
	"encoding/json"
	"time"

	"fileshare/internal/models"
)

// Event types sent over the live feed.
const (
	EventPostCreated     = "post_created"
	EventMessagesDropped = "messages_dropped"
)

var droppedNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Event is the envelope of every live feed message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PostCreatedPayload summarises a newly appended post.
type PostCreatedPayload struct {
	ID         uint      `json:"id"`
	User       string    `json:"user"`
	MediaCount int       `json:"mediaCount"`
	Timestamp  time.Time `json:"timestamp"`
}

// PostCreatedEvent encodes the post_created event for post.
func PostCreatedEvent(post *models.Post) ([]byte, error) {
	return json.Marshal(Event{
		Type: EventPostCreated,
		Payload: PostCreatedPayload{
			ID:         post.ID,
			User:       post.User,
			MediaCount: len(post.Media),
			Timestamp:  post.Timestamp,
		},
	})
}
