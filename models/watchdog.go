package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	WatchdogUsersTable MongoDbCollection = "watchdog_users"
)

// WatchdogStatus is the cross-server status of a tracked user
type WatchdogStatus string

const (
	WatchdogStatusNone        WatchdogStatus = ""
	WatchdogStatusFlagged     WatchdogStatus = "FLAGGED"
	WatchdogStatusPermFlagged WatchdogStatus = "PERM_FLAGGED"
	WatchdogStatusAutoFlagged WatchdogStatus = "AUTO_FLAGGED"
	WatchdogStatusAppealed    WatchdogStatus = "APPEALED"
)

// WatchdogAction is the configured punishment for a policy tier
type WatchdogAction string

const (
	WatchdogActionWarn    WatchdogAction = "WARN"
	WatchdogActionKick    WatchdogAction = "KICK"
	WatchdogActionBan     WatchdogAction = "BAN"
	WatchdogActionRole    WatchdogAction = "ROLE"
	WatchdogActionUnknown WatchdogAction = "UNKNOWN"
)

// ParseWatchdogAction maps a stored action string onto the closed action
// set, falling back to WatchdogActionUnknown for configuration drift
func ParseWatchdogAction(value string) WatchdogAction {
	switch WatchdogAction(value) {
	case WatchdogActionWarn, WatchdogActionKick, WatchdogActionBan, WatchdogActionRole:
		return WatchdogAction(value)
	}
	return WatchdogActionUnknown
}

type WatchdogFoundAt struct {
	Type      string   `bson:"type"` // owner, staff or member
	GuildID   string   `bson:"guildid"`
	GuildName string   `bson:"guildname"`
	Roles     []string `bson:"roles"`
}

type WatchdogUserEntry struct {
	ID           bson.ObjectId     `bson:"_id,omitempty"`
	UserID       string            `bson:"userid"`
	LastUsername string            `bson:"lastusername"`
	LastAvatar   string            `bson:"lastavatar"`
	Status       WatchdogStatus    `bson:"status"`
	Reason       string            `bson:"reason"`
	Evidence     string            `bson:"evidence"` // opaque JSON payload
	FoundAt      []WatchdogFoundAt `bson:"foundat"`
	Logged       bool              `bson:"logged"`
	CreatedAt    time.Time         `bson:"createdat"`
}

// Tracked is true for every status that still drives enforcement
func (w WatchdogUserEntry) Tracked() bool {
	switch w.Status {
	case WatchdogStatusFlagged, WatchdogStatusPermFlagged, WatchdogStatusAutoFlagged:
		return true
	}
	return false
}
