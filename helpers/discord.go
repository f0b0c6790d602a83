package helpers

import (
	"regexp"
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/bwmarrin/discordgo"
)

var mentionRegex = regexp.MustCompile(`<@!?(\d+)>`)

// IsBotAdmin returns true if $id is in the bot admin list
func IsBotAdmin(id string) bool {
	admins, err := GetConfig().Path("admins").Children()
	if err != nil {
		return false
	}

	for _, admin := range admins {
		if admin.Data().(string) == id {
			return true
		}
	}

	return false
}

// RequireBotAdmin only calls $cb if the author is a bot admin
func RequireBotAdmin(msg *discordgo.Message, cb Callback) {
	if !IsBotAdmin(msg.Author.ID) {
		cache.GetSession().ChannelMessageSend(msg.ChannelID, "You are not allowed to do this.")
		return
	}

	cb()
}

// IsGuildAdmin returns true if the author has the administrator or
// manage server permission in the message's channel
func IsGuildAdmin(msg *discordgo.Message) bool {
	if IsBotAdmin(msg.Author.ID) {
		return true
	}

	perms, err := cache.GetSession().State.UserChannelPermissions(msg.Author.ID, msg.ChannelID)
	if err != nil {
		return false
	}

	return perms&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator ||
		perms&discordgo.PermissionManageServer == discordgo.PermissionManageServer
}

// RequireGuildAdmin only calls $cb if the author is a guild admin
func RequireGuildAdmin(msg *discordgo.Message, cb Callback) {
	if !IsGuildAdmin(msg) {
		cache.GetSession().ChannelMessageSend(msg.ChannelID, "You are not allowed to do this.")
		return
	}

	cb()
}

// GetChannel returns the channel from the state, falling back to the API
func GetChannel(channelID string) (*discordgo.Channel, error) {
	channel, err := cache.GetSession().State.Channel(channelID)
	if err == nil {
		return channel, nil
	}

	return cache.GetSession().Channel(channelID)
}

// GetGuild returns the guild from the state, falling back to the API
func GetGuild(guildID string) (*discordgo.Guild, error) {
	guild, err := cache.GetSession().State.Guild(guildID)
	if err == nil {
		return guild, nil
	}

	return cache.GetSession().Guild(guildID)
}

// GetUser returns the user from the state, falling back to the API
func GetUser(userID string) (*discordgo.User, error) {
	for _, guild := range cache.GetSession().State.Guilds {
		member, err := cache.GetSession().State.Member(guild.ID, userID)
		if err == nil {
			return member.User, nil
		}
	}

	return cache.GetSession().User(userID)
}

// GetAvatarUrl returns the full avatar url for $user, empty string if
// they have no avatar set
func GetAvatarUrl(user *discordgo.User) string {
	if user == nil || user.Avatar == "" {
		return ""
	}

	return discordgo.EndpointUserAvatar(user.ID, user.Avatar)
}

// GetUserFromMention resolves an @mention or a raw ID to a user
func GetUserFromMention(mention string) (*discordgo.User, error) {
	result := mentionRegex.FindStringSubmatch(mention)
	if len(result) == 2 {
		mention = result[1]
	}

	return GetUser(mention)
}

// ParseUserIDs extracts user IDs from a comma separated list of
// mentions and raw IDs
func ParseUserIDs(input string) (userIDs []string) {
	for _, part := range regexp.MustCompile(`[,\s]+`).Split(input, -1) {
		if part == "" {
			continue
		}
		result := mentionRegex.FindStringSubmatch(part)
		if len(result) == 2 {
			part = result[1]
		}
		if regexp.MustCompile(`^\d+$`).MatchString(part) {
			userIDs = append(userIDs, part)
		}
	}
	return userIDs
}

// SendMessage sends a message to a channel
func SendMessage(channelID string, content string) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSend(channelID, content)
}

// AddReaction adds a reaction to a message
func AddReaction(channelID, messageID, emoji string) error {
	return cache.GetSession().MessageReactionAdd(channelID, messageID, emoji)
}

// SendEmbed sends an embed to a channel
func SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSendEmbed(channelID, embed)
}

// ConfirmEmbed asks $author to confirm an action by reacting to an
// embed, returns false if $timeout passes without a decision
func ConfirmEmbed(channelID string, author *discordgo.User, confirmMessageText string, confirmEmojiID string, abortEmojiID string, timeout time.Duration) bool {
	// send embed asking the user to confirm
	confirmMessage, err := cache.GetSession().ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "Please confirm, " + author.Username,
		Description: confirmMessageText,
	})
	if err != nil {
		cache.GetSession().ChannelMessageSend(channelID, "Something went wrong: "+err.Error())
		return false
	}

	// delete embed after everything is done
	defer cache.GetSession().ChannelMessageDelete(confirmMessage.ChannelID, confirmMessage.ID)

	// add default reactions to embed
	cache.GetSession().MessageReactionAdd(confirmMessage.ChannelID, confirmMessage.ID, confirmEmojiID)
	cache.GetSession().MessageReactionAdd(confirmMessage.ChannelID, confirmMessage.ID, abortEmojiID)

	// check every second if a reaction has been clicked, give up once
	// the deadline passes
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		confirms, _ := cache.GetSession().MessageReactions(confirmMessage.ChannelID, confirmMessage.ID, confirmEmojiID, 100)
		for _, confirm := range confirms {
			if confirm.ID == author.ID {
				// user has confirmed the call
				return true
			}
		}
		aborts, _ := cache.GetSession().MessageReactions(confirmMessage.ChannelID, confirmMessage.ID, abortEmojiID, 100)
		for _, abort := range aborts {
			if abort.ID == author.ID {
				// user has aborted the call
				return false
			}
		}

		time.Sleep(1 * time.Second)
	}

	return false
}
