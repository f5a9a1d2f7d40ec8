package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func testDiscordBot(t *testing.T) (*DiscordBot, *discordgo.Session) {
	t.Helper()
	sess := &discordgo.Session{State: discordgo.NewState()}
	sess.State.User = &discordgo.User{ID: "42"}
	return &DiscordBot{session: sess, log: zap.NewNop(), prefix: "!task"}, sess
}

func guildMessage(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		Content: content,
		GuildID: "guild-1",
	}}
}

func TestCommandText(t *testing.T) {
	d, sess := testDiscordBot(t)

	cases := []struct {
		name      string
		msg       *discordgo.MessageCreate
		text      string
		addressed bool
	}{
		{"prefix", guildMessage("!task add Buy milk"), "add Buy milk", true},
		{"bare prefix", guildMessage("!task"), "", true},
		{"mention", guildMessage("<@42> list"), "list", true},
		{"nick mention", guildMessage("<@!42> ping"), "ping", true},
		{"plain chatter", guildMessage("nothing to see"), "nothing to see", false},
		{"prefix inside word", guildMessage("!taskmaster rules"), "!taskmaster rules", false},
		{"dm needs no prefix", &discordgo.MessageCreate{Message: &discordgo.Message{Content: "list"}}, "list", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, addressed := d.commandText(sess, tc.msg)
			if text != tc.text {
				t.Errorf("text = %q, want %q", text, tc.text)
			}
			if addressed != tc.addressed {
				t.Errorf("addressed = %v, want %v", addressed, tc.addressed)
			}
		})
	}
}
