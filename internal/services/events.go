package services

import (
	"encoding/json"
	"log"
	"time"
)

// Event subjects published by the services.
const (
	EventUserRegistered = "user.registered"
	EventPostCreated    = "post.created"
	EventPostUpdated    = "post.updated"
	EventPostDeleted    = "post.deleted"
	EventPostLiked      = "post.liked"
	EventPostUnliked    = "post.unliked"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
)

// EventPublisher delivers domain events to a broker. The RabbitMQ and NATS
// clients in pkg implement it.
type EventPublisher interface {
	Publish(subject string, body []byte) error
}

// Event is the JSON envelope published for every subject.
type Event struct {
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurredAt"`
	Data       map[string]string `json:"data"`
}

// publish sends an event if a publisher is configured. Delivery is best
// effort: failures are logged and never fail the request.
func publish(p EventPublisher, subject string, data map[string]string) {
	if p == nil {
		return
	}
	body, err := json.Marshal(Event{Type: subject, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", subject, err)
		return
	}
	if err := p.Publish(subject, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", subject, err)
	}
}
