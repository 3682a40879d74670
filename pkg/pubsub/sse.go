package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/classdeps/pkg/logging"
)

var log = logging.New("pubsub")

// ErrClosed is returned by a closed publisher
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer is the channel capacity of one subscription
const subscriberBuffer = 100

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

// topic holds the state of one topic
type topic struct {
	config  TopicConfig
	version int
	buffer  []Event // oldest first, at most config.BufferSize
	subs    map[*sseSubscription]struct{}
}

func (t *topic) record(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.buffer = append(t.buffer, event)
	if over := len(t.buffer) - t.config.BufferSize; over > 0 {
		t.buffer = append(t.buffer[:0:0], t.buffer[over:]...)
	}
}

// replay picks the buffered events a new subscriber gets. A resuming
// subscriber (after > 0) gets every buffered event newer than after,
// regardless of ReplayAll.
func (t *topic) replay(after int) []Event {
	if after > 0 {
		var events []Event
		for _, e := range t.buffer {
			if e.Version > after {
				events = append(events, e)
			}
		}
		return events
	}
	if !t.config.ReplayAll && len(t.buffer) > 0 {
		return t.buffer[len(t.buffer)-1:]
	}
	return t.buffer
}

// SSEPublisher implements Publisher using Server-Sent Events
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// NewRoundPublisher creates a publisher with the status and rounds topics
// configured: late subscribers get the current status and the last ten rounds.
func NewRoundPublisher() *SSEPublisher {
	p := NewSSEPublisher()
	p.ConfigureTopic(TopicStatus, TopicConfig{BufferSize: 1})
	p.ConfigureTopic(TopicRounds, TopicConfig{BufferSize: 10, ReplayAll: true})
	return p
}

// topicLocked returns the state of name, creating it. Callers hold p.mu.
func (p *SSEPublisher) topicLocked(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicLocked(name).config = config
}

// Subscribe creates a new subscription to a topic
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	return p.SubscribeAfter(ctx, name, 0)
}

// SubscribeAfter subscribes to a topic, first replaying the buffered events
// with a version above after. Clients reconnecting with Last-Event-ID use it
// to resume without gaps as long as the buffer still holds what they missed.
func (p *SSEPublisher) SubscribeAfter(ctx context.Context, name string, after int) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	t := p.topicLocked(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	t.subs[sub] = struct{}{}

	// Replay under the lock so a concurrent Publish cannot interleave
	replay := t.replay(after)
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			log.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	p.mu.Unlock()

	if len(replay) > 0 {
		log.Debug("replayed events to new subscriber", "topic", name, "count", len(replay), "after", after)
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// Publish sends an event to all subscribers of a topic
func (p *SSEPublisher) Publish(name string, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	t := p.topicLocked(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}
	t.record(event)

	// Never block on a slow subscriber
	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			log.Warn("subscription channel full, dropping event", "topic", name, "type", eventType, "version", event.Version)
		}
	}
	return nil
}

// Close shuts down the publisher and all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = make(map[*sseSubscription]struct{})
	}
	return nil
}

// unsubscribe removes sub and closes its channel. Subscriptions already
// dropped by Close had their channel closed there.
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := t.subs[sub]; !ok {
		return
	}
	delete(t.subs, sub)
	close(sub.events)
}

// Subscribers returns the number of open subscriptions to a topic
func (p *SSEPublisher) Subscribers(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

// sseSubscription implements Subscription
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes an event in SSE wire format, named after its type so
// clients can listen per event type:
//
//	event: round_complete
//	id: 3
//	data: {json}
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event.Type, event.Version, jsonData)
	return err
}
