package verification

import (
	"github.com/bwmarrin/discordgo"
)

// SessionMembership implements Membership on a discordgo session
type SessionMembership struct {
	session *discordgo.Session
}

func NewSessionMembership(session *discordgo.Session) *SessionMembership {
	return &SessionMembership{session: session}
}

func (m *SessionMembership) AddRole(guildID, userID, roleID string) error {
	return m.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (m *SessionMembership) Kick(guildID, userID, reason string) error {
	return m.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (m *SessionMembership) SendDirectMessage(userID, content string) error {
	dmChannel, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}

	_, err = m.session.ChannelMessageSend(dmChannel.ID, content)
	return err
}

func (m *SessionMembership) SendMessage(channelID, content string) error {
	_, err := m.session.ChannelMessageSend(channelID, content)
	return err
}
