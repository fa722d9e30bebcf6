// Package natsbus publishes blog events to NATS subjects.
package natsbus

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is prepended to every event subject, so "post.liked" is
// published on "mernlog.post.liked".
const SubjectPrefix = "mernlog."

// Client wraps a NATS connection.
type Client struct {
	nc *nats.Conn
}

// Connect dials the NATS server at url.
func Connect(url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.Name("mernlog"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("Connected to NATS at %s", nc.ConnectedUrl())
	return &Client{nc: nc}, nil
}

// Publish sends body on the prefixed subject.
func (c *Client) Publish(subject string, body []byte) error {
	if c.nc == nil || c.nc.IsClosed() {
		return nats.ErrConnectionClosed
	}
	if err := c.nc.Publish(SubjectPrefix+subject, body); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Event is the envelope read by Subscribe handlers.
type Event struct {
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurredAt"`
	Data       map[string]string `json:"data"`
}

// Subscribe calls handler for every blog event. Undecodable messages are
// logged and skipped.
func (c *Client) Subscribe(handler func(Event)) (*nats.Subscription, error) {
	return c.nc.Subscribe(SubjectPrefix+">", func(m *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			log.Printf("Skipping invalid event on %s: %v", m.Subject, err)
			return
		}
		handler(ev)
	})
}

// Close drains the connection.
func (c *Client) Close() error {
	if c.nc == nil || c.nc.IsClosed() {
		return nil
	}
	return c.nc.Drain()
}
