package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	in := "SELECT term,\n\t\tsum(count)\n  FROM keyword_observations  "
	if got := compact(in); got != "SELECT term, sum(count) FROM keyword_observations" {
		t.Fatalf("compact = %q", got)
	}
}

func TestTracer_LogsEveryQuery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	root := zerolog.New(&buf).Level(zerolog.ErrorLevel)
	tr := Tracer(root)

	ctx := logger.WithBatch(context.Background(), "b-7")
	tr.OnQuery(ctx, QueryEvent{SQL: "SELECT 1", ElapsedUS: 1500})

	out := buf.String()
	testkit.MustContain(t, out, `"sql":"SELECT 1"`)
	testkit.MustContain(t, out, `"elapsed_ms":1.5`)
	testkit.MustContain(t, out, `"batch_id":"b-7"`)
	testkit.MustContain(t, out, `"component":"pg"`)
}

func TestSlowTracer_OnlySlowOrFailed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := SlowTracer(zerolog.New(&buf))

	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT fast"})
	if buf.Len() != 0 {
		t.Fatalf("fast query logged: %s", buf.String())
	}
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT slow", Slow: true})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT broken", Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d: %s", len(lines), buf.String())
	}
	testkit.MustContain(t, lines[0], `"level":"warn"`)
	testkit.MustContain(t, lines[1], `"level":"error"`)
}

func TestOpen_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "::not a dsn::"}, nil, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
