package pubsub

import (
	"context"
	"encoding/json"
)

// Topics
const (
	TopicStatus = "status" // runner state changes
	TopicRounds = "rounds" // completed or aborted rounds
)

// Event types
const (
	EventStatus        = "status"
	EventRoundComplete = "round_complete"
	EventRoundAborted  = "round_aborted"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic, increasing
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string

	// Events is closed when the subscription or the publisher is closed
	Events() <-chan Event

	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	Close() error
}

// Resumer is implemented by publishers that can replay the events a
// reconnecting client missed
type Resumer interface {
	SubscribeAfter(ctx context.Context, topic string, after int) (Subscription, error)
}

// Status is the state of the runner
type Status struct {
	State   string `json:"state"` // idle, loading, running, ready, error
	Message string `json:"message"`
	Rounds  int    `json:"rounds"` // rounds completed since start
}

// RoundSummary is the payload of round events
type RoundSummary struct {
	ID         string   `json:"id"`
	Reason     string   `json:"reason"`
	Changed    []string `json:"changed"`
	Marked     []string `json:"marked"`
	Deferred   []string `json:"deferred"`
	Diffed     int      `json:"diffed"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}
