package trace

import (
	"context"
	"strings"
	"testing"
)

func TestNewMessageID(t *testing.T) {
	a, b := NewMessageID(), NewMessageID()
	if !strings.HasPrefix(a, "msg_") || len(a) != len("msg_")+16 {
		t.Errorf("unexpected id %q", a)
	}
	if a == b {
		t.Error("ids should be unique")
	}
}

func TestMessageIDContext(t *testing.T) {
	if got := MessageID(context.Background()); got != "" {
		t.Errorf("MessageID on empty context = %q", got)
	}

	ctx, id := Start(context.Background())
	if got := MessageID(ctx); got != id {
		t.Errorf("MessageID = %q, want %q", got, id)
	}
}
