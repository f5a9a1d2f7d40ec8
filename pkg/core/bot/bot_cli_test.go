package bot

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

type echoHandler struct {
	errored []error
}

func (h *echoHandler) HandleMessage(ctx context.Context, msg *Incoming, conn Connector) error {
	return conn.SendMessage(ctx, msg.ChatID, &Message{Text: "echo: " + msg.Text})
}

func (h *echoHandler) HandleError(_ context.Context, err error, _ string, _ Connector) error {
	h.errored = append(h.errored, err)
	return nil
}

func TestCLIBot_Run(t *testing.T) {
	var out bytes.Buffer
	b, err := NewCLIBot(strings.NewReader("hello\n\nworld\n"), &out)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	handler := &echoHandler{}
	b.RegisterHandler(handler)

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "echo: hello\necho: world\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if len(handler.errored) != 0 {
		t.Errorf("unexpected handler errors: %v", handler.errored)
	}
}

func TestCLIBot_RequiresHandler(t *testing.T) {
	b, err := NewCLIBot(strings.NewReader(""), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := b.Run(context.Background()); err == nil {
		t.Fatal("expected error without a registered handler")
	}
}
