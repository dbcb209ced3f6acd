package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestWithLoggerRoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithLogger(context.Background(), logger)

	if got := FromContext(ctx, nil); got != logger {
		t.Fatal("expected the stored logger back from context")
	}
}

func TestFromContext_FallsBack(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatal("expected the fallback logger for a bare context")
	}

	if got := FromContext(nil, nil); got == nil {
		t.Fatal("expected a usable logger even with nothing available")
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	logger := slog.New(MultiHandler(
		slog.NewTextHandler(&first, nil),
		slog.NewTextHandler(&second, nil),
	))

	logger.Info("order created", "order_id", "order_1")

	for name, buf := range map[string]*bytes.Buffer{"first": &first, "second": &second} {
		if !strings.Contains(buf.String(), "order created") {
			t.Fatalf("handler %s did not receive the record: %q", name, buf.String())
		}
	}
}

func TestMultiHandler_RespectsLevels(t *testing.T) {
	t.Parallel()

	var debugOut, errorOut bytes.Buffer
	logger := slog.New(MultiHandler(
		slog.NewTextHandler(&debugOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorOut, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	logger.Debug("cache miss", "key", "checkout:attempt:x")

	if !strings.Contains(debugOut.String(), "cache miss") {
		t.Fatal("debug handler should have received the record")
	}
	if errorOut.Len() != 0 {
		t.Fatalf("error handler should have skipped the record, got %q", errorOut.String())
	}
}

func TestMultiHandler_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	logger := slog.New(MultiHandler(nil, nil))
	logger.Info("dropped")
}
