// Package tracing times the setup phase of a run. Spans form parent-child
// trees carried through contexts and are logged through slog once setup
// completes.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed setup step. Children may be attached from concurrent
// goroutines.
type Span struct {
	name     string
	traceID  string
	start    time.Time
	mu       sync.Mutex
	duration time.Duration
	err      error
	attrs    []slog.Attr
	children []*Span
}

// StartSpan creates a root span and stores it in the returned context.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	span := &Span{name: name, traceID: traceID, start: time.Now()}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChildSpan creates a span under the one in ctx, or a detached root
// when ctx carries none.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{name: name, start: time.Now()}
	if parent := SpanFromContext(ctx); parent != nil {
		child.traceID = parent.traceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

func (s *Span) Name() string { return s.name }

func (s *Span) TraceID() string { return s.traceID }

func (s *Span) End() {
	s.mu.Lock()
	s.duration = time.Since(s.start)
	s.mu.Unlock()
}

// EndErr ends the span, records err on it and returns err unchanged.
func (s *Span) EndErr(err error) error {
	s.mu.Lock()
	s.duration = time.Since(s.start)
	s.err = err
	s.mu.Unlock()
	return err
}

// SetAttr attaches an attribute. Attributes are logged in insertion order.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Log writes the span tree to l, one record per span. Spans that ended with
// an error are logged at warn level, all others at debug level.
func (s *Span) Log(l *slog.Logger) {
	s.log(l, 0)
}

func (s *Span) log(l *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := make([]slog.Attr, 0, len(s.attrs)+5)
	attrs = append(attrs,
		slog.String("trace_id", s.traceID),
		slog.String("span", s.name),
		slog.Int("depth", depth),
		slog.Duration("duration", s.duration),
	)
	level := slog.LevelDebug
	if s.err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", s.err.Error()))
	}
	attrs = append(attrs, s.attrs...)
	children := s.children
	s.mu.Unlock()

	l.LogAttrs(context.Background(), level, "span", attrs...)
	for _, child := range children {
		child.log(l, depth+1)
	}
}
