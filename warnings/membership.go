package warnings

import (
	"time"

	"github.com/Stachio-Dev/Stachio/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// MuteRecorder persists when a muted member has to be unmuted again
type MuteRecorder interface {
	UpsertMute(entry models.MuteEntry) error
}

// SessionMembership implements Membership on a discordgo session.
// Muting assigns the guild's configured mute role and records when it
// has to come off again, the unmute loop picks the row up even after
// a restart. Kicks and bans map directly onto the gateway calls.
type SessionMembership struct {
	session    *discordgo.Session
	muteRoleID func(guildID string) string
	mutes      MuteRecorder
}

func NewSessionMembership(session *discordgo.Session, muteRoleID func(guildID string) string, mutes MuteRecorder) *SessionMembership {
	return &SessionMembership{
		session:    session,
		muteRoleID: muteRoleID,
		mutes:      mutes,
	}
}

func (m *SessionMembership) Mute(guildID, userID string, duration time.Duration, reason string) error {
	roleID := m.muteRoleID(guildID)
	if roleID == "" {
		return errors.New("no mute role configured for guild " + guildID)
	}

	err := m.session.GuildMemberRoleAdd(guildID, userID, roleID)
	if err != nil {
		return err
	}

	return m.mutes.UpsertMute(models.MuteEntry{
		GuildID:  guildID,
		UserID:   userID,
		RoleID:   roleID,
		UnmuteAt: time.Now().Add(duration),
	})
}

func (m *SessionMembership) Kick(guildID, userID, reason string) error {
	return m.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (m *SessionMembership) Ban(guildID, userID, reason string) error {
	return m.session.GuildBanCreateWithReason(guildID, userID, reason, 0)
}
