package antiphish

import "github.com/bwmarrin/discordgo"

// SessionRemover deletes messages through a discordgo session
type SessionRemover struct {
	session *discordgo.Session
}

func NewSessionRemover(session *discordgo.Session) *SessionRemover {
	return &SessionRemover{session: session}
}

func (r *SessionRemover) DeleteMessage(channelID, messageID string) error {
	return r.session.ChannelMessageDelete(channelID, messageID)
}
