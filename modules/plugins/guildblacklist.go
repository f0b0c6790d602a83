package plugins

import (
	"fmt"
	"strings"
	"time"

	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/globalsign/mgo/bson"
)

// GuildBlacklist maintains the guild-level block list. Entries are
// picked up by the broadcast loop and announced to the feed channel.
type GuildBlacklist struct{}

func (g *GuildBlacklist) Commands() []string {
	return []string{
		"guildblacklist",
		"gbl",
	}
}

func (g *GuildBlacklist) Init(session *discordgo.Session) {
}

func (g *GuildBlacklist) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	helpers.RequireBotAdmin(msg, func() {
		args := strings.Fields(content)
		if len(args) < 2 {
			helpers.SendMessage(msg.ChannelID, "Usage: `gbl add|remove|info <guild id> [reason]`")
			return
		}

		switch args[0] {
		case "add":
			name := args[1]
			joined := false
			if guild, err := helpers.GetGuild(args[1]); err == nil {
				name = guild.Name
				joined = true
			}

			reason := strings.Join(args[2:], " ")
			if reason == "" {
				reason = "No reason provided"
			}

			err := helpers.MDbUpsert(models.BlacklistedGuildsTable, bson.M{"guildid": args[1]}, bson.M{"$set": bson.M{
				"guildid":   args[1],
				"name":      name,
				"reason":    reason,
				"status":    models.GuildStatusBlacklisted,
				"logged":    false,
				"createdat": time.Now(),
			}})
			helpers.Relax(err)

			// blacklisting a guild we are in means leaving it right away
			if joined {
				helpers.SoftRelax(session.GuildLeave(args[1]), func() {
					helpers.SendMessage(msg.ChannelID, "I could not leave that guild, please remove me by hand.")
				})
			}

			helpers.SendMessage(msg.ChannelID, fmt.Sprintf("⛔ Blacklisted guild `%s` (`%s`).", name, args[1]))
		case "remove":
			err := helpers.MdbDeleteQuery(models.BlacklistedGuildsTable, bson.M{"guildid": args[1]})
			if helpers.IsMdbNotFound(err) {
				helpers.SendMessage(msg.ChannelID, "That guild is not blacklisted.")
				return
			}
			helpers.Relax(err)

			helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ Removed guild `%s` from the blacklist.", args[1]))
		case "info":
			var entry models.BlacklistedGuildEntry
			err := helpers.MdbOne(
				helpers.MdbCollection(models.BlacklistedGuildsTable).Find(bson.M{"guildid": args[1]}),
				&entry,
			)
			if helpers.IsMdbNotFound(err) {
				helpers.SendMessage(msg.ChannelID, "That guild is not blacklisted.")
				return
			}
			helpers.Relax(err)

			helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
				Title: "⛔ Blacklisted Guild",
				Color: 0xE74C3C,
				Description: strings.Join([]string{
					fmt.Sprintf("**Guild:** %s (`%s`)", entry.Name, entry.GuildID),
					"**Reason:** " + entry.Reason,
					"**Blacklisted:** " + humanize.Time(entry.CreatedAt),
				}, "\n"),
			})
		default:
			helpers.SendMessage(msg.ChannelID, "Usage: `gbl add|remove|info <guild id> [reason]`")
		}
	})
}
