package warnings

import (
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo/bson"
)

// MuteSource lists and removes persisted mutes
type MuteSource interface {
	ExpiredMutes(now time.Time) ([]models.MuteEntry, error)
	DeleteMute(id bson.ObjectId) error
}

// SweepExpiredMutes takes the mute role off every member whose mute
// ran out and deletes the row. A failed role removal keeps the row so
// the next pass retries it.
func SweepExpiredMutes(source MuteSource, removeRole func(guildID, userID, roleID string) error) (removed int, err error) {
	entries, err := source.ExpiredMutes(time.Now())
	if err != nil {
		return 0, err
	}

	log := cache.GetLogger().WithField("module", "warnings")

	for _, entry := range entries {
		err = removeRole(entry.GuildID, entry.UserID, entry.RoleID)
		if err != nil {
			log.Warnf("could not unmute %s in guild %s: %s",
				entry.UserID, entry.GuildID, err.Error())
			continue
		}

		err = source.DeleteMute(entry.ID)
		if err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}
