package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	WarningsTable      MongoDbCollection = "warnings"
	WarningConfigTable MongoDbCollection = "warning_configs"
	MutesTable         MongoDbCollection = "mutes"
)

// MuteEntry records an active mute and when it runs out, rows survive
// restarts and are swept by the unmute loop
type MuteEntry struct {
	ID       bson.ObjectId `bson:"_id,omitempty"`
	GuildID  string        `bson:"guildid"`
	UserID   string        `bson:"userid"`
	RoleID   string        `bson:"roleid"`
	UnmuteAt time.Time     `bson:"unmuteat"`
}

type WarningEntry struct {
	ID          bson.ObjectId `bson:"_id,omitempty"`
	GuildID     string        `bson:"guildid"`
	UserID      string        `bson:"userid"`
	ModeratorID string        `bson:"moderatorid"`
	Points      int           `bson:"points"`
	Reason      string        `bson:"reason"`
	CreatedAt   time.Time     `bson:"createdat"`
}

// WarningConfigEntry holds the per-guild escalation thresholds, the
// point decay window and the mute settings
type WarningConfigEntry struct {
	ID          bson.ObjectId  `bson:"_id,omitempty"`
	GuildID     string         `bson:"guildid"`
	Thresholds  map[string]int `bson:"thresholds"` // action name -> points
	MuteRoleID  string         `bson:"muteroleid"`
	MuteMinutes int            `bson:"muteminutes"`
	DecayDays   int            `bson:"decaydays"`
}

const (
	WarningActionMute = "mute"
	WarningActionKick = "kick"
	WarningActionBan  = "ban"
)

func (c WarningConfigEntry) Default(guildID string) WarningConfigEntry {
	return WarningConfigEntry{
		GuildID: guildID,
		Thresholds: map[string]int{
			WarningActionMute: 5,
			WarningActionKick: 10,
			WarningActionBan:  15,
		},
		MuteMinutes: 30,
		DecayDays:   90,
	}
}

// WarningPreset returns the thresholds for a named preset, ok is false
// for unknown preset names
func WarningPreset(name string) (thresholds map[string]int, ok bool) {
	switch name {
	case "lenient":
		return map[string]int{WarningActionMute: 3, WarningActionKick: 6, WarningActionBan: 10}, true
	case "strict":
		return map[string]int{WarningActionMute: 2, WarningActionKick: 3, WarningActionBan: 5}, true
	case "hardcore":
		return map[string]int{WarningActionKick: 2, WarningActionBan: 3}, true
	}
	return nil, false
}
