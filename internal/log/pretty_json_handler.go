package log

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

type PrettyJSONHandlerOptions struct {
	slog.HandlerOptions
	// PrettyPrint indents every record over multiple lines. Meant for local development only.
	PrettyPrint bool
}

// NewPrettyJSONHandler returns a JSON handler which optionally indents its output.
func NewPrettyJSONHandler(w io.Writer, opts *PrettyJSONHandlerOptions) slog.Handler {
	if opts == nil {
		opts = &PrettyJSONHandlerOptions{}
	}

	if !opts.PrettyPrint {
		return slog.NewJSONHandler(w, &opts.HandlerOptions)
	}

	h := &prettyHandler{
		mu:     &sync.Mutex{},
		writer: w,
		buf:    &bytes.Buffer{},
	}
	h.json = slog.NewJSONHandler(h.buf, &opts.HandlerOptions)
	return h
}

// prettyHandler lets the JSON handler write into a shared buffer and indents it before writing
// it out. Handlers derived via WithAttrs and WithGroup share the buffer and its lock.
type prettyHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	buf    *bytes.Buffer
	json   slog.Handler
}

func (h *prettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.json.Enabled(ctx, level)
}

func (h *prettyHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	defer h.buf.Reset()

	if err := h.json.Handle(ctx, r); err != nil {
		return err
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, h.buf.Bytes(), "", "  "); err != nil {
		return err
	}

	_, err := h.writer.Write(indented.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyHandler{mu: h.mu, writer: h.writer, buf: h.buf, json: h.json.WithAttrs(attrs)}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	return &prettyHandler{mu: h.mu, writer: h.writer, buf: h.buf, json: h.json.WithGroup(name)}
}
