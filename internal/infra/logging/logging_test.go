package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithBotID(ctx, "bot-1")
	ctx = WithSessID(ctx, "sess-1")

	With(ctx, &base).Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"bot_id":"bot-1"`, `"session_id":"sess-1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestWith_EmptyContextAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	With(context.Background(), &base).Info().Msg("hello")

	out := buf.String()
	for _, field := range []string{"request_id", "bot_id", "session_id"} {
		if strings.Contains(out, field) {
			t.Fatalf("unexpected %s in %s", field, out)
		}
	}
}

func TestTraceDuration_EmitsStartAndFinish(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.TraceLevel)

	done := TraceDuration(&base, "ConversationUC.Send")
	done()

	out := buf.String()
	if !strings.Contains(out, `"message":"start"`) || !strings.Contains(out, `"message":"finish"`) {
		t.Fatalf("trace pair missing: %s", out)
	}
	if !strings.Contains(out, `"method":"ConversationUC.Send"`) {
		t.Fatalf("method field missing: %s", out)
	}
	if !strings.Contains(out, `"duration"`) {
		t.Fatalf("finish entry carries no duration: %s", out)
	}
}
