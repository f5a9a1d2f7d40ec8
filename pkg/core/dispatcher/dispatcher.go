package dispatcher

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cloudcarver/taskbot/pkg/core/bot"
	"github.com/cloudcarver/taskbot/pkg/core/guildconf"
	"github.com/cloudcarver/taskbot/pkg/core/session"
	"github.com/cloudcarver/taskbot/pkg/core/task"
)

// Session key prefix for a pending add prompt; the author id is
// appended so prompts in a shared channel do not cross users.
const sessionKeyPendingAdd = "__pending_add:"

// Dispatcher turns chat messages into task store calls and formats the
// replies. Each verb maps to exactly one store operation.
type Dispatcher struct {
	store  task.Store
	guilds *guildconf.Store
	sm     session.Manager
	log    *zap.Logger
}

func New(store task.Store, guilds *guildconf.Store, sm session.Manager, log *zap.Logger) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("task store is required")
	}
	if sm == nil {
		return nil, errors.New("session manager is required")
	}
	return &Dispatcher{
		store:  store,
		guilds: guilds,
		sm:     sm,
		log:    log,
	}, nil
}

func (d *Dispatcher) HandleMessage(ctx context.Context, msg *bot.Incoming, conn bot.Connector) error {
	sess, err := d.sm.Get(ctx, msg.ChatID)
	if err != nil {
		return errors.Wrap(err, "failed to get session")
	}

	pendingKey := sessionKeyPendingAdd + msg.AuthorID
	if _, err := sess.Get(ctx, pendingKey); err == nil {
		// An addressed command takes priority over the open prompt and
		// abandons it; only plain replies become the description.
		if verb, _ := splitVerb(msg.Text); !msg.Addressed || !isVerb(verb) {
			return d.finishPendingAdd(ctx, msg, conn, sess, pendingKey)
		}
		if err := sess.Delete(ctx, pendingKey); err != nil {
			return errors.Wrap(err, "failed to clear pending input state")
		}
	} else if !errors.Is(err, session.ErrKeyNotFound) {
		return errors.Wrap(err, "failed to read pending input state")
	}

	if !msg.Addressed {
		return nil
	}

	verb, rest := splitVerb(msg.Text)
	if verb == "" {
		return d.reply(ctx, conn, msg.ChatID, usageText)
	}

	if isTaskVerb(verb) {
		if redirect := d.channelRedirect(msg); redirect != "" {
			return d.reply(ctx, conn, msg.ChatID, redirect)
		}
	}

	switch verb {
	case "add":
		return d.handleAdd(ctx, msg, conn, sess, pendingKey, rest)
	case "list":
		return d.handleList(ctx, msg, conn, rest)
	case "show":
		return d.handleShow(ctx, msg, conn, rest)
	case "done":
		return d.handleDone(ctx, msg, conn, rest)
	case "edit":
		return d.handleEdit(ctx, msg, conn, rest)
	case "delete":
		return d.handleDelete(ctx, msg, conn, rest)
	case "config":
		return d.handleConfig(ctx, msg, conn, rest)
	case "ping":
		return d.reply(ctx, conn, msg.ChatID, "Pong!")
	case "help":
		return d.reply(ctx, conn, msg.ChatID, usageText)
	default:
		return d.reply(ctx, conn, msg.ChatID, "Unknown command `"+verb+"`.\n"+usageText)
	}
}

func (d *Dispatcher) HandleError(ctx context.Context, err error, chatID string, conn bot.Connector) error {
	if d.log != nil {
		d.log.Error("command failed", zap.String("channel", chatID), zap.Error(err))
	}
	return d.reply(ctx, conn, chatID, "Something went wrong, please try again.")
}

func (d *Dispatcher) handleAdd(ctx context.Context, msg *bot.Incoming, conn bot.Connector, sess session.Session, pendingKey, rest string) error {
	if strings.TrimSpace(rest) == "" {
		if err := sess.Set(ctx, pendingKey, true); err != nil {
			return errors.Wrap(err, "failed to set pending input state")
		}
		return d.reply(ctx, conn, msg.ChatID, "What should the task say? Reply with a description, or `cancel`.")
	}
	t, err := d.store.Add(ctx, rest)
	if err != nil {
		return d.replyStoreError(ctx, conn, msg.ChatID, err, 0)
	}
	return d.reply(ctx, conn, msg.ChatID, "Added "+formatTaskLine(t))
}

func (d *Dispatcher) finishPendingAdd(ctx context.Context, msg *bot.Incoming, conn bot.Connector, sess session.Session, pendingKey string) error {
	if strings.EqualFold(strings.TrimSpace(msg.Text), "cancel") {
		if err := sess.Delete(ctx, pendingKey); err != nil {
			return errors.Wrap(err, "failed to clear pending input state")
		}
		return d.reply(ctx, conn, msg.ChatID, "Okay, nothing added.")
	}
	t, err := d.store.Add(ctx, msg.Text)
	if err != nil {
		if errors.Is(err, task.ErrInvalidInput) {
			// Keep the prompt open until usable input arrives.
			return d.reply(ctx, conn, msg.ChatID, "A task needs a description. Try again, or `cancel`.")
		}
		return d.replyStoreError(ctx, conn, msg.ChatID, err, 0)
	}
	if err := sess.Delete(ctx, pendingKey); err != nil {
		return errors.Wrap(err, "failed to clear pending input state")
	}
	return d.reply(ctx, conn, msg.ChatID, "Added "+formatTaskLine(t))
}

func (d *Dispatcher) handleList(ctx context.Context, msg *bot.Incoming, conn bot.Connector, rest string) error {
	filter, label, err := parseFilter(rest)
	if err != nil {
		return d.reply(ctx, conn, msg.ChatID, err.Error())
	}
	tasks, err := d.store.List(ctx, filter)
	if err != nil {
		return d.replyStoreError(ctx, conn, msg.ChatID, err, 0)
	}
	return d.reply(ctx, conn, msg.ChatID, formatTaskList(tasks, label))
}

func (d *Dispatcher) handleShow(ctx context.Context, msg *bot.Incoming, conn bot.Connector, rest string) error {
	id, ok := parseID(rest)
	if !ok {
		return d.reply(ctx, conn, msg.ChatID, "Usage: `show <id>`")
	}
	t, err := d.store.Get(ctx, id)
	if err != nil {
		return d.replyStoreError(ctx, conn, msg.ChatID, err, id)
	}
	return d.reply(ctx, conn, msg.ChatID, formatTaskDetail(t))
}

func (d *Dispatcher) handleDone(ctx context.Context, msg *bot.Incoming, conn bot.Connector, rest string) error {
	id, ok := parseID(rest)
	if !ok {
		return d.reply(ctx, conn, msg.ChatID, "Usage: `done <id>`")
	}
	t, err := d.store.Complete(ctx, id)
	if err != nil {
		return d.replyStoreError(ctx, conn, msg.ChatID, err, id)
	}
	return d.reply(ctx, conn, msg.ChatID, "Completed "+formatTaskLine(t))
}

func (d *Dispatcher) handleEdit(ctx context.Context, msg *bot.Incoming, conn bot.Connector, rest string) error {
	idPart, description := splitVerb(rest)
	id, ok := parseID(idPart)
	if !ok || strings.TrimSpace(description) == "" {
		return d.reply(ctx, conn, msg.ChatID, "Usage: `edit <id> <new description>`")
	}
	// The edit verb only exposes the description; completion state
	// changes go through done.
	t, err := d.store.Update(ctx, id, task.Changes{Description: &description})
	if err != nil {
		return d.replyStoreError(ctx, conn, msg.ChatID, err, id)
	}
	return d.reply(ctx, conn, msg.ChatID, "Updated "+formatTaskLine(t))
}

func (d *Dispatcher) handleDelete(ctx context.Context, msg *bot.Incoming, conn bot.Connector, rest string) error {
	id, ok := parseID(rest)
	if !ok {
		return d.reply(ctx, conn, msg.ChatID, "Usage: `delete <id>`")
	}
	if err := d.store.Delete(ctx, id); err != nil {
		return d.replyStoreError(ctx, conn, msg.ChatID, err, id)
	}
	return d.reply(ctx, conn, msg.ChatID, formatDeleted(id))
}

func (d *Dispatcher) handleConfig(ctx context.Context, msg *bot.Incoming, conn bot.Connector, rest string) error {
	if msg.GuildID == "" {
		return d.reply(ctx, conn, msg.ChatID, "Config commands only work inside a server.")
	}
	if d.guilds == nil {
		return d.reply(ctx, conn, msg.ChatID, "Config storage is not enabled.")
	}

	sub, arg := splitVerb(rest)
	switch sub {
	case "show", "":
		cfg := d.guilds.Get(msg.GuildID)
		if cfg.TasksChannelID == "" {
			return d.reply(ctx, conn, msg.ChatID, "Task commands are allowed in every channel.")
		}
		return d.reply(ctx, conn, msg.ChatID, "Task commands are restricted to <#"+cfg.TasksChannelID+">.")
	case "channel":
		return d.handleConfigChannel(ctx, msg, conn, arg)
	default:
		return d.reply(ctx, conn, msg.ChatID, "Usage: `config show` or `config channel <here|off>`")
	}
}

func (d *Dispatcher) handleConfigChannel(ctx context.Context, msg *bot.Incoming, conn bot.Connector, arg string) error {
	arg = strings.TrimSpace(arg)
	var channelID string
	switch {
	case strings.EqualFold(arg, "here"):
		channelID = msg.ChatID
	case strings.EqualFold(arg, "off"):
		channelID = ""
	default:
		return d.reply(ctx, conn, msg.ChatID, "Usage: `config channel <here|off>`")
	}
	if err := d.guilds.SetTasksChannel(msg.GuildID, channelID); err != nil {
		if errors.Is(err, guildconf.ErrPersistence) {
			return d.reply(ctx, conn, msg.ChatID, "Could not save the setting, please try again.")
		}
		return errors.Wrap(err, "failed to update guild config")
	}
	if channelID == "" {
		return d.reply(ctx, conn, msg.ChatID, "Task commands are now allowed in every channel.")
	}
	return d.reply(ctx, conn, msg.ChatID, "Task commands are now restricted to <#"+channelID+">.")
}

// channelRedirect returns a redirect reply when the guild pins task
// commands to a different channel, or "" when the command may proceed.
func (d *Dispatcher) channelRedirect(msg *bot.Incoming) string {
	if d.guilds == nil || msg.GuildID == "" {
		return ""
	}
	cfg := d.guilds.Get(msg.GuildID)
	if cfg.TasksChannelID == "" || cfg.TasksChannelID == msg.ChatID {
		return ""
	}
	return "Task commands live in <#" + cfg.TasksChannelID + "> on this server."
}

func (d *Dispatcher) reply(ctx context.Context, conn bot.Connector, chatID, text string) error {
	if err := conn.SendMessage(ctx, chatID, &bot.Message{Text: text}); err != nil {
		return errors.Wrap(err, "failed to send reply")
	}
	return nil
}

func (d *Dispatcher) replyStoreError(ctx context.Context, conn bot.Connector, chatID string, err error, id int64) error {
	switch {
	case errors.Is(err, task.ErrNotFound):
		return d.reply(ctx, conn, chatID, formatNotFound(id))
	case errors.Is(err, task.ErrInvalidInput):
		return d.reply(ctx, conn, chatID, "A task needs a non-empty description.")
	case errors.Is(err, task.ErrPersistence):
		if d.log != nil {
			d.log.Error("store write failed", zap.Error(err))
		}
		return d.reply(ctx, conn, chatID, "Could not save your change, please try again.")
	default:
		return errors.Wrap(err, "task store call failed")
	}
}

func isTaskVerb(verb string) bool {
	switch verb {
	case "add", "list", "show", "done", "edit", "delete":
		return true
	}
	return false
}

func isVerb(verb string) bool {
	if isTaskVerb(verb) {
		return true
	}
	switch verb {
	case "config", "ping", "help":
		return true
	}
	return false
}

// splitVerb separates the first word from the remainder, preserving
// the remainder's inner spacing.
func splitVerb(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	idx := strings.IndexAny(text, " \t")
	if idx < 0 {
		return strings.ToLower(text), ""
	}
	return strings.ToLower(text[:idx]), strings.TrimSpace(text[idx+1:])
}
