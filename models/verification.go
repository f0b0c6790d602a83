package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	VerificationAttemptsTable MongoDbCollection = "verification_attempts"
	VerificationConfigTable   MongoDbCollection = "verification_configs"
)

// VerificationAttemptEntry tracks emoji picks per guild and user,
// attempts only ever grows until the row is swept or cleared
type VerificationAttemptEntry struct {
	ID          bson.ObjectId `bson:"_id,omitempty"`
	GuildID     string        `bson:"guildid"`
	UserID      string        `bson:"userid"`
	Attempts    int           `bson:"attempts"`
	Verified    bool          `bson:"verified"`
	LastTriedAt time.Time     `bson:"lasttriedat"`
}

type VerificationConfigEntry struct {
	ID              bson.ObjectId `bson:"_id,omitempty"`
	GuildID         string        `bson:"guildid"`
	ChannelID       string        `bson:"channelid"`
	MessageID       string        `bson:"messageid"`
	LogsChannelID   string        `bson:"logschannelid"`
	VerifiedRoleIDs []string      `bson:"verifiedroleids"`
	EmojiCategory   string        `bson:"emojicategory"`
	Emojis          []string      `bson:"emojis"`
	CorrectEmoji    string        `bson:"correctemoji"`
	MaxAttempts     int           `bson:"maxattempts"`
	KickOnFail      bool          `bson:"kickonfail"`
	DMOnSuccess     bool          `bson:"dmonsuccess"`
	DMOnFailure     bool          `bson:"dmonfailure"`
}

func (c VerificationConfigEntry) Default(guildID string) VerificationConfigEntry {
	return VerificationConfigEntry{
		GuildID:       guildID,
		EmojiCategory: "colors",
		MaxAttempts:   3,
		DMOnSuccess:   true,
		DMOnFailure:   true,
	}
}
