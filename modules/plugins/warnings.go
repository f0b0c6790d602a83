package plugins

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/Stachio-Dev/Stachio/warnings"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

type Warnings struct {
	engine *warnings.Engine
	store  *warnings.MongoStore
}

func (p *Warnings) Commands() []string {
	return []string{
		"warn",
		"warnings",
	}
}

func (p *Warnings) Init(session *discordgo.Session) {
	p.store = &warnings.MongoStore{}
	p.engine = warnings.NewEngine(p.store, warnings.NewSessionMembership(session, func(guildID string) string {
		config, err := p.store.Config(guildID)
		if err != nil {
			helpers.RelaxLog(err)
			return ""
		}
		return config.MuteRoleID
	}, p.store))
}

func (p *Warnings) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)

	if command == "warn" {
		helpers.RequireGuildAdmin(msg, func() {
			p.addWarning(args, content, msg, session)
		})
		return
	}

	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Usage: `warnings view|remove|config|preset|mute-role …`")
		return
	}

	switch args[0] {
	case "view":
		helpers.RequireGuildAdmin(msg, func() {
			p.view(args[1:], msg)
		})
	case "remove":
		helpers.RequireGuildAdmin(msg, func() {
			p.remove(args[1:], msg)
		})
	case "config":
		helpers.RequireGuildAdmin(msg, func() {
			p.config(msg)
		})
	case "preset":
		helpers.RequireGuildAdmin(msg, func() {
			p.preset(args[1:], msg)
		})
	case "mute-role":
		helpers.RequireGuildAdmin(msg, func() {
			p.muteRole(args[1:], msg)
		})
	default:
		helpers.SendMessage(msg.ChannelID, "Usage: `warnings view|remove|config|preset|mute-role …`")
	}
}

// warn <user> [points] <reason…>, points defaults to 1
func (p *Warnings) addWarning(args []string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Usage: `warn <user> [points] [reason]`")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	targetUser, err := helpers.GetUserFromMention(args[0])
	if err != nil || targetUser.ID == "" {
		helpers.SendMessage(msg.ChannelID, "I could not find that user.")
		return
	}

	points := 1
	reasonArgs := args[1:]
	if len(args) >= 2 {
		if parsed, parseErr := strconv.Atoi(args[1]); parseErr == nil && parsed > 0 {
			points = parsed
			reasonArgs = args[2:]
		}
	}
	reason := strings.Join(reasonArgs, " ")
	if reason == "" {
		reason = "No reason provided"
	}

	total, config, err := p.engine.AddWarning(channel.GuildID, targetUser.ID, msg.Author.ID, points, reason)
	helpers.Relax(err)

	applied := p.engine.EnforceSanctions(channel.GuildID, targetUser.ID, total, config)

	response := fmt.Sprintf("⚠ Warned `%s` with **%d** point(s), they now have **%d** point(s).",
		targetUser.Username, points, total)
	if len(applied) > 0 {
		response += " Sanctions applied: `" + strings.Join(applied, "`, `") + "`."
	}
	helpers.SendMessage(msg.ChannelID, response)
}

func (p *Warnings) view(args []string, msg *discordgo.Message) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Usage: `warnings view <user>`")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	targetUser, err := helpers.GetUserFromMention(args[0])
	if err != nil || targetUser.ID == "" {
		helpers.SendMessage(msg.ChannelID, "I could not find that user.")
		return
	}

	entries, err := p.store.List(channel.GuildID, targetUser.ID)
	helpers.Relax(err)

	if len(entries) == 0 {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ `%s` has no warnings.", targetUser.Username))
		return
	}

	config, err := p.store.Config(channel.GuildID)
	helpers.Relax(err)
	total, err := p.engine.Total(channel.GuildID, targetUser.ID, config)
	helpers.Relax(err)

	lines := make([]string, 0, len(entries)+2)
	lines = append(lines, fmt.Sprintf("**Active points:** %d", total), "")
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("`%d` point(s), %s, by <@%s>: %s",
			entry.Points, humanize.Time(entry.CreatedAt), entry.ModeratorID, entry.Reason))
	}

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("⚠ Warnings for %s", targetUser.Username),
		Color:       0xE67E22,
		Description: strings.Join(lines, "\n"),
	})
}

func (p *Warnings) remove(args []string, msg *discordgo.Message) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Usage: `warnings remove <user> <points>`")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	targetUser, err := helpers.GetUserFromMention(args[0])
	if err != nil || targetUser.ID == "" {
		helpers.SendMessage(msg.ChannelID, "I could not find that user.")
		return
	}

	points, err := strconv.Atoi(args[1])
	if err != nil || points <= 0 {
		helpers.SendMessage(msg.ChannelID, "Please specify a positive number of points.")
		return
	}

	remaining, err := p.engine.RemovePoints(channel.GuildID, targetUser.ID, msg.Author.ID, points)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ Removed %d point(s) from `%s`, %d point(s) remain.",
		points, targetUser.Username, remaining))
}

func (p *Warnings) config(msg *discordgo.Message) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	config, err := p.store.Config(channel.GuildID)
	helpers.Relax(err)

	muteRole := "not set"
	if config.MuteRoleID != "" {
		muteRole = "<@&" + config.MuteRoleID + ">"
	}

	lines := []string{
		"**Thresholds**",
	}
	for _, action := range []string{models.WarningActionMute, models.WarningActionKick, models.WarningActionBan} {
		threshold, ok := config.Thresholds[action]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: `%d` point(s)", action, threshold))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("**Mute Role:** %s", muteRole),
		fmt.Sprintf("**Mute Duration:** %d minute(s)", config.MuteMinutes),
		fmt.Sprintf("**Point Decay:** %d day(s)", config.DecayDays),
	)

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:       "⚙ Warning Settings",
		Color:       0x5865F2,
		Description: strings.Join(lines, "\n"),
	})
}

func (p *Warnings) preset(args []string, msg *discordgo.Message) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Available presets: `lenient`, `strict`, `hardcore`.")
		return
	}

	thresholds, ok := models.WarningPreset(strings.ToLower(args[0]))
	if !ok {
		helpers.SendMessage(msg.ChannelID, "Available presets: `lenient`, `strict`, `hardcore`.")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	config, err := p.store.Config(channel.GuildID)
	helpers.Relax(err)
	config.GuildID = channel.GuildID
	config.Thresholds = thresholds

	err = p.store.SetConfig(config)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ Applied the `%s` preset.", strings.ToLower(args[0])))
}

func (p *Warnings) muteRole(args []string, msg *discordgo.Message) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Usage: `warnings mute-role <role>`")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	config, err := p.store.Config(channel.GuildID)
	helpers.Relax(err)
	config.GuildID = channel.GuildID
	config.MuteRoleID = strings.Trim(args[0], "<@&>")

	err = p.store.SetConfig(config)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, "✅ Mute role updated.")
}
