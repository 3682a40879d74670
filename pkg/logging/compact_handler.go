package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxListItems bounds how many elements of a slice attribute are printed
const maxListItems = 8

// CompactHandler formats logs in a compact, readable format for console output
// Format: [LEVEL] HH:MM:SS [component] message | unit <- cause key=value
type CompactHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex // shared by handlers derived with WithAttrs/WithGroup
	out    io.Writer
	attrs  []slog.Attr
	prefix string // dotted group path, "" outside groups
}

// NewCompactHandler creates a new compact console handler
func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	h := &CompactHandler{mu: &sync.Mutex{}, out: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func levelLabel(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return "[TRACE]"
	case l < slog.LevelInfo:
		return "[DEBUG]"
	case l < slog.LevelWarn:
		return "[INFO] "
	case l < slog.LevelError:
		return "[WARN] "
	default:
		return "[ERROR]"
	}
}

func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.Grow(256)

	b.WriteString(levelLabel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Time.Format("15:04:05"))
	b.WriteByte(' ')

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		attrs = append(attrs, a)
		return true
	})

	var component, unit, cause string
	rest := attrs[:0:0]
	for _, a := range attrs {
		switch {
		case a.Equal(slog.Attr{}):
		case a.Key == ComponentKey && component == "":
			component = a.Value.String()
		case a.Key == "unit" && unit == "" && a.Value.Kind() == slog.KindString:
			unit = a.Value.String()
		case a.Key == "cause" && cause == "" && a.Value.Kind() == slog.KindString:
			cause = a.Value.String()
		default:
			rest = append(rest, a)
		}
	}

	if component != "" {
		b.WriteString("[" + component + "] ")
	}
	b.WriteString(r.Message)

	separated := false
	sep := func() {
		if !separated {
			b.WriteString(" |")
			separated = true
		}
		b.WriteByte(' ')
	}

	// Marks read as "unit <- cause"
	switch {
	case unit != "" && cause != "":
		sep()
		b.WriteString(unit + " <- " + cause)
	case unit != "":
		sep()
		b.WriteString("unit=" + quoteIfNeeded(unit))
	case cause != "":
		sep()
		b.WriteString("cause=" + quoteIfNeeded(cause))
	}

	for _, a := range rest {
		sep()
		writeAttr(&b, "", a)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		for i, ga := range a.Value.Group() {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}

	key := prefix + a.Key
	switch a.Key {
	case "requestID", "roundID":
		// Ids are uuids; the first 8 chars are enough to correlate lines
		short := strings.TrimSuffix(a.Key, "ID")
		if short == "request" {
			short = "req"
		}
		b.WriteString(prefix + short + "=" + truncate(a.Value.String(), 8))
		return
	case "durationMs":
		b.WriteString(prefix + "duration=" + a.Value.String() + "ms")
		return
	case "error":
		b.WriteString(key + "=" + strconv.Quote(a.Value.String()))
		return
	}

	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		return formatAny(v.Any())
	default:
		return v.String()
	}
}

// formatAny prints slices as [a b c], eliding the tail of long unit lists
func formatAny(x any) string {
	if err, ok := x.(error); ok {
		return strconv.Quote(err.Error())
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Slice {
		return fmt.Sprintf("%v", x)
	}

	n := rv.Len()
	items := make([]string, 0, min(n, maxListItems)+1)
	for i := 0; i < n && i < maxListItems; i++ {
		items = append(items, fmt.Sprintf("%v", rv.Index(i).Interface()))
	}
	if n > maxListItems {
		items = append(items, fmt.Sprintf("+%d more", n-maxListItems))
	}
	return "[" + strings.Join(items, " ") + "]"
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		// Attributes added inside a group carry the group path in their key
		if h.prefix != "" && a.Key != ComponentKey {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}
