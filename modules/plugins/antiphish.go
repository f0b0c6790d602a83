package plugins

import (
	"fmt"
	"strings"

	"github.com/Stachio-Dev/Stachio/antiphish"
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/Stachio-Dev/Stachio/watchdog"
	"github.com/bwmarrin/discordgo"
)

type AntiPhish struct {
	scanner  *antiphish.Scanner
	subjects *watchdog.SubjectStore
}

func (a *AntiPhish) Commands() []string {
	return []string{
		"antiphish",
	}
}

func (a *AntiPhish) Init(session *discordgo.Session) {
	a.subjects = &watchdog.SubjectStore{}
	a.scanner = antiphish.NewScanner(a.subjects, antiphish.NewSessionRemover(session))
}

func (a *AntiPhish) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)
	if len(args) >= 1 && args[0] == "test" {
		// classify without side effects, handy for allow list tweaks
		helpers.RequireGuildAdmin(msg, func() {
			verdict := antiphish.Classify(strings.TrimSpace(strings.TrimPrefix(content, args[0])))
			if verdict.Suspicious {
				helpers.SendMessage(msg.ChannelID, "🚨 Suspicious: "+verdict.Reason)
				return
			}
			helpers.SendMessage(msg.ChannelID, "✅ Looks clean.")
		})
		return
	}

	autoFlagged, err := a.subjects.CountByStatus(models.WatchdogStatusAutoFlagged)
	helpers.Relax(err)
	helpers.SendMessage(msg.ChannelID, fmt.Sprintf(
		"🎣 Anti-Phishing is scanning messages. `%d` user(s) are currently auto-flagged.", autoFlagged))
}

// OnMessage scans every message, hits are deleted and their author is
// auto-flagged in the registry
func (a *AntiPhish) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.Author == nil {
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	if err != nil {
		return
	}

	_, err = a.scanner.Scan(antiphish.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   channel.GuildID,
		UserID:    msg.Author.ID,
		Username:  msg.Author.Username,
		AvatarURL: helpers.GetAvatarUrl(msg.Author),
		Content:   msg.Content,
		Bot:       msg.Author.Bot,
	})
	if err != nil {
		helpers.RelaxLog(err)
	}
}

func (a *AntiPhish) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (a *AntiPhish) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (a *AntiPhish) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}
