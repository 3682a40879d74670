package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := slog.New(h).With(ComponentKey, "propagate")

	l.Debug("marked unit", "unit", "com.acme.B", "reason", "uses removed member")

	line := buf.String()
	if !strings.HasPrefix(line, "[DEBUG] ") {
		t.Errorf("Expected DEBUG prefix, got %q", line)
	}
	if !strings.Contains(line, "[propagate] marked unit |") {
		t.Errorf("Expected component tag before message, got %q", line)
	}
	if !strings.Contains(line, `unit=com.acme.B reason="uses removed member"`) {
		t.Errorf("Expected formatted attributes, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("Expected component not repeated as attribute, got %q", line)
	}
}

func TestCompactHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug suppressed at info level, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.HasPrefix(buf.String(), "[WARN]  ") {
		t.Errorf("Expected WARN line, got %q", buf.String())
	}
}

func TestContextIDs(t *testing.T) {
	ctx := WithRoundID(WithRequestID(context.Background(), "req-1"), "round-1")

	if GetRequestID(ctx) != "req-1" {
		t.Errorf("Expected req-1, got %q", GetRequestID(ctx))
	}
	if GetRoundID(ctx) != "round-1" {
		t.Errorf("Expected round-1, got %q", GetRoundID(ctx))
	}

	args := withRequestID(ctx, []any{"k", "v"})
	if len(args) != 6 || args[0] != "requestID" || args[2] != "roundID" {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestComponentLoggerFollowsLevel(t *testing.T) {
	var buf bytes.Buffer
	defer SetLevel(slog.LevelInfo)
	defer SetOutput(os.Stderr)
	SetOutput(&buf)
	SetLevel(slog.LevelDebug)

	l := New("driver")
	l.Debug("round started", "changed", 2)

	if !strings.Contains(buf.String(), "[driver] round started | changed=2") {
		t.Errorf("Unexpected output %q", buf.String())
	}
	if !l.Enabled(slog.LevelDebug) {
		t.Error("Expected debug enabled")
	}
}

func TestCompactHandlerMarks(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

	l.Log(context.Background(), LevelTrace, "mark", "unit", "a.B", "cause", "a.A", "rule", "member-usage")

	line := buf.String()
	if !strings.HasPrefix(line, "[TRACE] ") {
		t.Errorf("Expected TRACE prefix, got %q", line)
	}
	if !strings.Contains(line, "mark | a.B <- a.A rule=member-usage") {
		t.Errorf("Expected unit <- cause rendering, got %q", line)
	}
}

func TestCompactHandlerValues(t *testing.T) {
	units := make([]string, 10)
	for i := range units {
		units[i] = string(rune('a' + i))
	}

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"long list", slog.Any("units", units), "units=[a b c d e f g h +2 more]"},
		{"short list", slog.Any("units", []string{"x", "y"}), "units=[x y]"},
		{"round id", slog.String("roundID", "0123456789abcdef"), "round=01234567"},
		{"duration", slog.Int64("durationMs", 12), "duration=12ms"},
		{"group", slog.Group("cache", slog.Int("old", 1), slog.Int("new", 2)), "cache.old=1 cache.new=2"},
		{"empty string", slog.String("reason", ""), `reason=""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			slog.New(NewCompactHandler(&buf, nil)).Info("msg", tt.attr)
			if !strings.Contains(buf.String(), "| "+tt.want) {
				t.Errorf("Expected %q in %q", tt.want, buf.String())
			}
		})
	}
}

func TestCompactHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, nil)).WithGroup("round").With("id", "r1")

	l.Info("done", "marked", 3)

	if !strings.Contains(buf.String(), "| round.id=r1 round.marked=3") {
		t.Errorf("Expected group-qualified keys, got %q", buf.String())
	}
}
