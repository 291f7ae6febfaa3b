package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

func parseLogLevel(raw string) slog.Leveler {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
	return level
}

type prettyHandler struct {
	w            io.Writer
	level        slog.Leveler
	colorEnabled bool
	attrs        []slog.Attr
	groups       []string
}

func newPrettyHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return &prettyHandler{
		w:            w,
		level:        level,
		colorEnabled: isTerminalWriter(w),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(colorizeLevel(r.Level, h.colorEnabled))
	b.WriteString(" ")
	b.WriteString(r.Message)
	b.WriteString("\n")
	for _, attr := range h.attrs {
		h.writeAttr(&b, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.writeAttr(&b, attr)
		return true
	})
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyHandler{
		w:            h.w,
		level:        h.level,
		colorEnabled: h.colorEnabled,
		attrs:        append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups:       append([]string{}, h.groups...),
	}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &prettyHandler{
		w:            h.w,
		level:        h.level,
		colorEnabled: h.colorEnabled,
		attrs:        append([]slog.Attr{}, h.attrs...),
		groups:       append(append([]string{}, h.groups...), name),
	}
}

func (h *prettyHandler) writeAttr(b *strings.Builder, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := attr.Key
	if len(h.groups) > 0 {
		key = strings.Join(h.groups, ".") + "." + key
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupHandler := &prettyHandler{
			w:      h.w,
			level:  h.level,
			attrs:  h.attrs,
			groups: append(append([]string{}, h.groups...), key),
		}
		for _, child := range attr.Value.Group() {
			groupHandler.writeAttr(b, child)
		}
		return
	}
	b.WriteString("  ")
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(attr.Value.String())
	b.WriteString("\n")
}

const (
	colorReset = "\x1b[0m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

func colorizeLevel(level slog.Level, enabled bool) string {
	label := level.String()
	if !enabled {
		return label
	}
	switch {
	case level <= slog.LevelDebug:
		return colorDebug + label + colorReset
	case level < slog.LevelWarn:
		return colorInfo + label + colorReset
	case level < slog.LevelError:
		return colorWarn + label + colorReset
	default:
		return colorError + label + colorReset
	}
}

func isTerminalWriter(w io.Writer) bool {
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
