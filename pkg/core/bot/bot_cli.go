package bot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const DefaultCLIChatID = "local"

// CLIBot is a line-oriented backend for local development: it reads
// commands from in and prints replies to out. Every line is addressed,
// so no prefix is needed.
type CLIBot struct {
	in      io.Reader
	out     io.Writer
	handler Handler
}

func NewCLIBot(in io.Reader, out io.Writer) (*CLIBot, error) {
	if in == nil || out == nil {
		return nil, errors.New("cli reader and writer are required")
	}
	return &CLIBot{in: in, out: out}, nil
}

func (b *CLIBot) RegisterHandler(handler Handler) {
	b.handler = handler
}

func (b *CLIBot) SendMessage(_ context.Context, _ string, message *Message) error {
	if message == nil || message.Text == "" {
		return errors.Wrap(ErrEmptyMessage, "refusing to send empty message")
	}
	_, err := fmt.Fprintln(b.out, message.Text)
	return err
}

// Run reads lines until EOF or ctx is done.
func (b *CLIBot) Run(ctx context.Context) error {
	if b.handler == nil {
		return errors.New("handler is not registered")
	}
	scanner := bufio.NewScanner(b.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		msg := &Incoming{
			ChatID:    DefaultCLIChatID,
			AuthorID:  DefaultCLIChatID,
			Text:      text,
			Addressed: true,
		}
		if err := b.handler.HandleMessage(ctx, msg, b); err != nil {
			if handleErr := b.handler.HandleError(ctx, err, DefaultCLIChatID, b); handleErr != nil {
				return handleErr
			}
		}
	}
	return scanner.Err()
}
