package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// prettyHandler writes a header line per record, then one indented line per
// field. component, run_id and stage move into the header; at debug level
// run_id and stage are also repeated as fields.
type prettyHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	min    slog.Leveler
	source bool
	prefix string
	fields []field
}

type field struct {
	key string
	val slog.Value
}

func newPrettyHandler(w io.Writer, level slog.Leveler, source bool) *prettyHandler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, min: level, source: source}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append(append([]field(nil), h.fields...), collect(h.prefix, attrs)...)
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := append([]field(nil), h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, collect(h.prefix, []slog.Attr{a})...)
		return true
	})
	fields = lastWins(fields)

	var component, runID, stage string
	body := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plain(f.val)
			continue
		case FieldRunID:
			runID = plain(f.val)
		case FieldStage:
			stage = plain(f.val)
		}
		if r.Level >= slog.LevelInfo && (f.key == FieldRunID || f.key == FieldStage) {
			continue
		}
		body = append(body, f)
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.UTC().Format(consoleTimeLayout))
	b.WriteByte(' ')
	b.WriteString(levelName(r.Level))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := subjectOf(runID, stage); subject != "" {
		b.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" - " + msg)
	if h.source && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
	for _, f := range body {
		b.WriteString("    - " + f.key + ": " + quoted(f.val) + "\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// collect flattens groups into dotted keys.
func collect(prefix string, attrs []slog.Attr) []field {
	var out []field
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			inner := prefix
			if a.Key != "" {
				inner += a.Key + "."
			}
			out = append(out, collect(inner, v.Group())...)
			continue
		}
		if a.Key == "" {
			continue
		}
		out = append(out, field{key: prefix + a.Key, val: v})
	}
	return out
}

// lastWins drops repeated keys, keeping the first position and the last value.
func lastWins(fields []field) []field {
	pos := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if i, ok := pos[f.key]; ok {
			out[i].val = f.val
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

// subjectOf renders "run 1a2b3c4d (ocr)" from the short run prefix.
func subjectOf(runID, stage string) string {
	runID, stage = strings.TrimSpace(runID), strings.TrimSpace(stage)
	if len(runID) > 8 {
		runID = runID[:8]
	}
	switch {
	case runID != "" && stage != "":
		return "run " + runID + " (" + stage + ")"
	case runID != "":
		return "run " + runID
	}
	return stage
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

// plain renders a value without quoting.
func plain(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(consoleTimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

// quoted is plain with quotes added when the text has spaces, '=' or '"'.
func quoted(v slog.Value) string {
	s := plain(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
