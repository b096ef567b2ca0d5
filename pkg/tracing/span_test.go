package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildSpansAttachToParent(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "setup", "R0")

	var wg sync.WaitGroup
	for _, name := range []string{"open-index", "open-wand", "load-docmap"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, span := StartChildSpan(ctx, name)
			span.SetAttr("path", name+".bin")
			span.End()
		}()
	}
	wg.Wait()
	root.End()

	children := root.Children()
	require.Len(t, children, 3)
	for _, child := range children {
		assert.Equal(t, "R0", child.TraceID())
	}
	assert.Same(t, root, SpanFromContext(ctx))
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestDetachedChild(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	span.End()
	assert.Empty(t, span.TraceID())
	assert.Equal(t, "orphan", span.Name())
}

func TestLogWritesTree(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "setup", "run-1")
	_, child := StartChildSpan(ctx, "open-index")
	child.SetAttr("documents", 3)
	child.SetAttr("terms", 7)
	child.End()
	root.End()
	root.Log(l)

	out := buf.String()
	assert.Contains(t, out, "span=setup")
	assert.Contains(t, out, "span=open-index")
	assert.Contains(t, out, "depth=1")
	assert.Regexp(t, "documents=3 terms=7", out)
}

func TestFailedSpanLogsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, root := StartSpan(context.Background(), "setup", "run-1")
	_, ok := StartChildSpan(ctx, "load-terms")
	ok.End()
	_, failed := StartChildSpan(ctx, "open-index")
	errMissing := errors.New("no such file")
	assert.Same(t, errMissing, failed.EndErr(errMissing))
	root.End()
	root.Log(l)

	out := buf.String()
	assert.Contains(t, out, "span=open-index")
	assert.Contains(t, out, `error="no such file"`)
	assert.NotContains(t, out, "load-terms")
}
