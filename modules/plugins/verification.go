package plugins

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/Stachio-Dev/Stachio/verification"
	"github.com/bwmarrin/discordgo"
)

type Verification struct {
	engine  *verification.Engine
	store   *verification.MongoStore
	configs *verification.ConfigStore
}

func (v *Verification) Commands() []string {
	return []string{
		"verification",
		"verify",
	}
}

func (v *Verification) Init(session *discordgo.Session) {
	v.store = &verification.MongoStore{}
	v.configs = &verification.ConfigStore{}
	v.engine = verification.NewEngine(v.store, verification.NewSessionMembership(session))

	// repost challenge panels that went missing while we were offline
	go func() {
		defer helpers.Recover()

		configs, err := v.configs.All()
		if err != nil {
			helpers.RelaxLog(err)
			return
		}

		for _, config := range configs {
			if config.ChannelID == "" {
				continue
			}
			if config.MessageID != "" {
				if _, err := session.ChannelMessage(config.ChannelID, config.MessageID); err == nil {
					continue
				}
			}
			v.postChallenge(&config)
		}
	}()
}

func (v *Verification) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Usage: `verify setup|status|repost|clear …`")
		return
	}

	switch args[0] {
	case "setup":
		helpers.RequireGuildAdmin(msg, func() {
			v.setup(args[1:], msg)
		})
	case "status":
		helpers.RequireGuildAdmin(msg, func() {
			v.status(msg)
		})
	case "repost":
		helpers.RequireGuildAdmin(msg, func() {
			v.repost(msg)
		})
	case "clear":
		helpers.RequireGuildAdmin(msg, func() {
			v.clear(args[1:], msg)
		})
	default:
		helpers.SendMessage(msg.ChannelID, "Usage: `verify setup|status|repost|clear …`")
	}
}

// verify setup <channel> <verified role> [category] [max attempts]
// [kick-on-fail]
func (v *Verification) setup(args []string, msg *discordgo.Message) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Usage: `verify setup <channel> <role> [category] [attempts] [kick]`")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	config, found, err := v.configs.Config(channel.GuildID)
	helpers.Relax(err)
	if !found {
		config = models.VerificationConfigEntry{}.Default(channel.GuildID)
	}

	config.ChannelID = strings.Trim(args[0], "<#>")
	config.VerifiedRoleIDs = []string{strings.Trim(args[1], "<@&>")}
	config.LogsChannelID = msg.ChannelID

	if len(args) >= 3 {
		category := strings.ToLower(args[2])
		valid := false
		for _, name := range verification.EmojiCategories() {
			if name == category {
				valid = true
				break
			}
		}
		if !valid {
			helpers.SendMessage(msg.ChannelID, "Available categories: `"+strings.Join(verification.EmojiCategories(), "`, `")+"`.")
			return
		}
		config.EmojiCategory = category
	}
	if len(args) >= 4 {
		attempts, parseErr := strconv.Atoi(args[3])
		if parseErr != nil || attempts <= 0 {
			helpers.SendMessage(msg.ChannelID, "Max attempts has to be a positive number.")
			return
		}
		config.MaxAttempts = attempts
	}
	if len(args) >= 5 {
		config.KickOnFail = args[4] == "kick" || args[4] == "true"
	}

	v.postChallenge(&config)
	if config.MessageID == "" {
		helpers.SendMessage(msg.ChannelID, "I could not post the verification message. Do I have access to that channel?")
		return
	}

	err = v.configs.Set(config)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, "✅ Verification is set up, the challenge has been posted in <#"+config.ChannelID+">.")
}

// postChallenge rolls a fresh emoji set, posts the panel and stores
// the message id and the correct pick on $config
func (v *Verification) postChallenge(config *models.VerificationConfigEntry) {
	emojis, correct := verification.BuildChallenge(config.EmojiCategory)

	message, err := helpers.SendEmbed(config.ChannelID, &discordgo.MessageEmbed{
		Title: "🔐 Server Verification",
		Color: 0x5865F2,
		Description: strings.Join([]string{
			"Welcome! Before you can access the server, we need to make sure you're not a bot.",
			"",
			"`✅` **How to verify:**",
			fmt.Sprintf("React with the **correct emoji** below that matches this one: `%s`.", correct),
			"",
			"`⚠️` You only get a few chances, choose carefully!",
		}, "\n"),
		Footer: &discordgo.MessageEmbedFooter{Text: "Verification System • Stay safe online"},
	})
	if err != nil {
		helpers.RelaxLog(err)
		return
	}

	for _, emoji := range emojis {
		helpers.RelaxLog(helpers.AddReaction(config.ChannelID, message.ID, emoji))
	}

	config.MessageID = message.ID
	config.Emojis = emojis
	config.CorrectEmoji = correct

	err = v.configs.Set(*config)
	helpers.RelaxLog(err)
}

func (v *Verification) status(msg *discordgo.Message) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	config, found, err := v.configs.Config(channel.GuildID)
	helpers.Relax(err)
	if !found {
		helpers.SendMessage(msg.ChannelID, "Verification is not set up on this server. Run `verify setup` first.")
		return
	}

	kickOnFail := "❌ no"
	if config.KickOnFail {
		kickOnFail = "✅ yes"
	}

	roles := make([]string, 0, len(config.VerifiedRoleIDs))
	for _, roleID := range config.VerifiedRoleIDs {
		roles = append(roles, "<@&"+roleID+">")
	}

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title: "🔐 Verification Status",
		Color: 0x5865F2,
		Description: strings.Join([]string{
			"**Channel:** <#" + config.ChannelID + ">",
			"**Verified Roles:** " + strings.Join(roles, ", "),
			"**Emoji Category:** `" + config.EmojiCategory + "`",
			fmt.Sprintf("**Max Attempts:** `%d`", config.MaxAttempts),
			"**Kick On Fail:** " + kickOnFail,
		}, "\n"),
	})
}

// repost rolls a fresh challenge, the old panel keeps working until
// it is deleted but its correct emoji is no longer stored
func (v *Verification) repost(msg *discordgo.Message) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	config, found, err := v.configs.Config(channel.GuildID)
	helpers.Relax(err)
	if !found {
		helpers.SendMessage(msg.ChannelID, "Verification is not set up on this server. Run `verify setup` first.")
		return
	}

	v.postChallenge(&config)
	helpers.SendMessage(msg.ChannelID, "✅ Posted a fresh verification challenge.")
}

func (v *Verification) clear(args []string, msg *discordgo.Message) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Usage: `verify clear <user>`")
		return
	}

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	targetUser, err := helpers.GetUserFromMention(args[0])
	if err != nil || targetUser.ID == "" {
		helpers.SendMessage(msg.ChannelID, "I could not find that user.")
		return
	}

	removed, err := v.engine.ClearAttempts(channel.GuildID, targetUser.ID)
	helpers.Relax(err)

	if removed == 0 {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("`%s` has no verification attempts.", targetUser.Username))
		return
	}
	helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ Cleared the verification attempts of `%s`.", targetUser.Username))
}

func (v *Verification) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (v *Verification) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
}

func (v *Verification) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

// OnReactionAdd treats reactions on the challenge panel as picks
func (v *Verification) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	if reaction.UserID == session.State.User.ID {
		return
	}

	channel, err := helpers.GetChannel(reaction.ChannelID)
	if err != nil {
		return
	}

	config, found, err := v.configs.Config(channel.GuildID)
	if err != nil || !found {
		return
	}
	if reaction.MessageID != config.MessageID {
		return
	}

	// keep the panel clean for the next member
	defer session.MessageReactionRemove(reaction.ChannelID, reaction.MessageID, reaction.Emoji.Name, reaction.UserID)

	username := reaction.UserID
	if user, err := helpers.GetUser(reaction.UserID); err == nil {
		username = user.Username
	}

	_, err = v.engine.Attempt(config, reaction.UserID, username, reaction.Emoji.Name)
	if err != nil {
		helpers.RelaxLog(err)
	}
}
