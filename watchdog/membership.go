package watchdog

import (
	"github.com/bwmarrin/discordgo"
)

// Member identifies the guild member an enforcement targets
type Member struct {
	GuildID   string
	GuildName string
	UserID    string
	Username  string
	AvatarURL string
}

// Membership performs the punitive and messaging side effects against
// the gateway. Every call is best-effort, callers convert failures
// into outcomes instead of propagating them.
type Membership interface {
	Kick(guildID, userID, reason string) error
	Ban(guildID, userID, reason string) error
	AddRole(guildID, userID, roleID string) error
	ResolveRole(guildID, roleID string) (*discordgo.Role, error)
	SendDirectMessage(userID string, embed *discordgo.MessageEmbed) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

// SessionMembership implements Membership on a discordgo session
type SessionMembership struct {
	session *discordgo.Session
}

func NewSessionMembership(session *discordgo.Session) *SessionMembership {
	return &SessionMembership{session: session}
}

func (m *SessionMembership) Kick(guildID, userID, reason string) error {
	return m.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (m *SessionMembership) Ban(guildID, userID, reason string) error {
	return m.session.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

func (m *SessionMembership) AddRole(guildID, userID, roleID string) error {
	return m.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (m *SessionMembership) ResolveRole(guildID, roleID string) (*discordgo.Role, error) {
	return m.session.State.Role(guildID, roleID)
}

func (m *SessionMembership) SendDirectMessage(userID string, embed *discordgo.MessageEmbed) error {
	dmChannel, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}

	_, err = m.session.ChannelMessageSendEmbed(dmChannel.ID, embed)
	return err
}

func (m *SessionMembership) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := m.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
