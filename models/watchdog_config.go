package models

import (
	"github.com/globalsign/mgo/bson"
)

const (
	WatchdogConfigTable MongoDbCollection = "watchdog_configs"
)

// WatchdogConfigEntry is the per-guild enforcement policy: one action
// slot per severity tier plus the optional role and log channel
type WatchdogConfigEntry struct {
	ID              bson.ObjectId  `bson:"_id,omitempty"`
	GuildID         string         `bson:"guildid"`
	Enabled         bool           `bson:"enabled"`
	LogChannelID    string         `bson:"logchannelid"`
	RoleID          string         `bson:"roleid"`
	ActionOnFlagged WatchdogAction `bson:"actiononflagged"`
	ActionOnPerm    WatchdogAction `bson:"actiononperm"`
	ActionOnAuto    WatchdogAction `bson:"actiononauto"`
}

func (c WatchdogConfigEntry) Default(guildID string) WatchdogConfigEntry {
	return WatchdogConfigEntry{
		GuildID:         guildID,
		Enabled:         true,
		ActionOnFlagged: WatchdogActionKick,
		ActionOnPerm:    WatchdogActionKick,
		ActionOnAuto:    WatchdogActionKick,
	}
}

// ActionFor resolves the action slot for a subject status, permanent
// tier first, then auto, then the base tier
func (c WatchdogConfigEntry) ActionFor(status WatchdogStatus) WatchdogAction {
	switch status {
	case WatchdogStatusPermFlagged:
		return c.ActionOnPerm
	case WatchdogStatusAutoFlagged:
		return c.ActionOnAuto
	}
	return c.ActionOnFlagged
}
