package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	BlacklistedGuildsTable MongoDbCollection = "blacklisted_guilds"
)

type GuildBlacklistStatus string

const (
	GuildStatusBlacklisted GuildBlacklistStatus = "BLACKLISTED"
)

// BlacklistedGuildEntry is a guild-level block record, Logged flips to
// true once the broadcast loop has announced it
type BlacklistedGuildEntry struct {
	ID        bson.ObjectId        `bson:"_id,omitempty"`
	GuildID   string               `bson:"guildid"`
	Name      string               `bson:"name"`
	Reason    string               `bson:"reason"`
	Status    GuildBlacklistStatus `bson:"status"`
	Logged    bool                 `bson:"logged"`
	CreatedAt time.Time            `bson:"createdat"`
}
