package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func summary(i int) RoundSummary {
	return RoundSummary{ID: string(rune('a' + i)), Diffed: i}
}

func TestRoundsReplayAll(t *testing.T) {
	pub := NewRoundPublisher()
	defer pub.Close()

	// Only the last ten rounds are buffered
	for i := 1; i <= 12; i++ {
		if err := pub.Publish(TopicRounds, EventRoundComplete, summary(i)); err != nil {
			t.Fatalf("Failed to publish round %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicRounds)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	for want := 3; want <= 12; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Expected version %d, got %d", want, event.Version)
			}
			var s RoundSummary
			if err := json.Unmarshal(event.Data, &s); err != nil {
				t.Fatalf("Failed to decode summary: %v", err)
			}
			if s.Diffed != want {
				t.Errorf("Expected round %d, got %d", want, s.Diffed)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for version %d", want)
		}
	}
}

func TestStatusReplaysLastOnly(t *testing.T) {
	pub := NewRoundPublisher()
	defer pub.Close()

	for _, state := range []string{"loading", "running", "ready"} {
		if err := pub.Publish(TopicStatus, EventStatus, Status{State: state}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicStatus)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		var s Status
		if err := json.Unmarshal(event.Data, &s); err != nil {
			t.Fatal(err)
		}
		if s.State != "ready" || event.Version != 3 {
			t.Errorf("Expected ready at version 3, got %s at %d", s.State, event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for status")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	for i := 1; i <= 3; i++ {
		if err := pub.Publish("test", "event", summary(i)); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	if err := pub.Publish("test", "event", summary(4)); err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}
	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestSubscriptionClose(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicRounds)
	if err != nil {
		t.Fatal(err)
	}
	if n := pub.Subscribers(TopicRounds); n != 1 {
		t.Errorf("Expected 1 subscriber, got %d", n)
	}

	cancel()
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel after cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for subscription to close")
	}
	if n := pub.Subscribers(TopicRounds); n != 0 {
		t.Errorf("Expected 0 subscribers, got %d", n)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Expected second Close to succeed, got %v", err)
	}
}

func TestPublisherClose(t *testing.T) {
	pub := NewSSEPublisher()
	sub, err := pub.Subscribe(context.Background(), TopicRounds)
	if err != nil {
		t.Fatal(err)
	}
	pub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected closed channel after publisher Close")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Expected Close after publisher Close to succeed, got %v", err)
	}
	if err := pub.Publish(TopicRounds, EventRoundComplete, summary(1)); err == nil {
		t.Error("Expected Publish on closed publisher to fail")
	}
	if _, err := pub.Subscribe(context.Background(), TopicRounds); err == nil {
		t.Error("Expected Subscribe on closed publisher to fail")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicRounds, Type: EventRoundComplete, Data: json.RawMessage(`{"id":"x"}`), Version: 7}
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "event: round_complete\nid: 7\ndata: {") {
		t.Errorf("Unexpected SSE framing: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Expected blank line terminator, got %q", out)
	}
}

func TestSubscribeAfter(t *testing.T) {
	pub := NewRoundPublisher()
	defer pub.Close()

	for i := 1; i <= 5; i++ {
		if err := pub.Publish(TopicRounds, EventRoundComplete, summary(i)); err != nil {
			t.Fatal(err)
		}
		if err := pub.Publish(TopicStatus, EventStatus, Status{State: "ready", Rounds: i}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		topic string
		after int
		want  []int
	}{
		{"resume rounds", TopicRounds, 3, []int{4, 5}},
		{"up to date", TopicRounds, 5, nil},
		{"zero replays all", TopicRounds, 0, []int{1, 2, 3, 4, 5}},
		{"status resumes from buffer", TopicStatus, 2, []int{5}},
		{"status up to date", TopicStatus, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			sub, err := pub.SubscribeAfter(ctx, tt.topic, tt.after)
			if err != nil {
				t.Fatal(err)
			}
			defer sub.Close()

			var got []int
		drain:
			for {
				select {
				case event := <-sub.Events():
					got = append(got, event.Version)
				case <-time.After(50 * time.Millisecond):
					break drain
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected versions %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected versions %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}

func TestPublisherIsResumer(t *testing.T) {
	var pub Publisher = NewSSEPublisher()
	if _, ok := pub.(Resumer); !ok {
		t.Error("Expected SSEPublisher to implement Resumer")
	}
}
