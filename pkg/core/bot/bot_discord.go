package bot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DiscordBot connects the handler to the Discord gateway. A message is
// considered addressed to the bot when it starts with the configured
// prefix, mentions the bot, or arrives as a direct message.
type DiscordBot struct {
	session *discordgo.Session
	log     *zap.Logger
	prefix  string

	handler Handler
}

func NewDiscordBot(token, prefix string, log *zap.Logger) (*DiscordBot, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	sess, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}
	sess.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	d := &DiscordBot{
		session: sess,
		log:     log,
		prefix:  prefix,
	}
	sess.AddHandler(d.onMessageCreate)
	return d, nil
}

func (d *DiscordBot) RegisterHandler(handler Handler) {
	d.handler = handler
}

// Start opens the gateway connection and blocks until ctx is done.
func (d *DiscordBot) Start(ctx context.Context) error {
	if d.handler == nil {
		return errors.New("handler is not registered")
	}
	if err := d.session.Open(); err != nil {
		return errors.Wrap(err, "failed to open discord gateway")
	}
	d.log.Info("connected to discord gateway")
	<-ctx.Done()
	return d.session.Close()
}

func (d *DiscordBot) SendMessage(_ context.Context, chatID string, message *Message) error {
	if message == nil || message.Text == "" {
		return errors.Wrap(ErrEmptyMessage, "refusing to send empty message")
	}
	if _, err := d.session.ChannelMessageSend(chatID, message.Text); err != nil {
		return errors.Wrapf(err, "failed to send message to channel %s", chatID)
	}
	return nil
}

func (d *DiscordBot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	ctx := context.Background()
	text, addressed := d.commandText(s, m)
	msg := &Incoming{
		ChatID:    m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		Text:      text,
		Addressed: addressed,
	}
	if err := d.handler.HandleMessage(ctx, msg, d); err != nil {
		if handleErr := d.handler.HandleError(ctx, err, m.ChannelID, d); handleErr != nil {
			d.log.Error("failed to handle dispatch error",
				zap.String("channel", m.ChannelID),
				zap.Error(handleErr))
		}
	}
}

// commandText strips the addressing marker and reports whether the
// message was directed at the bot.
func (d *DiscordBot) commandText(s *discordgo.Session, m *discordgo.MessageCreate) (string, bool) {
	text := strings.TrimSpace(m.Content)

	if d.prefix != "" && strings.HasPrefix(text, d.prefix) {
		rest := strings.TrimPrefix(text, d.prefix)
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return strings.TrimSpace(rest), true
		}
	}

	if s.State.User != nil {
		for _, mention := range []string{
			"<@" + s.State.User.ID + ">",
			"<@!" + s.State.User.ID + ">",
		} {
			if strings.HasPrefix(text, mention) {
				return strings.TrimSpace(strings.TrimPrefix(text, mention)), true
			}
		}
	}

	// DMs need no prefix.
	if m.GuildID == "" {
		return text, true
	}
	return text, false
}
