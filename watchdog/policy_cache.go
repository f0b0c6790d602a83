package watchdog

import (
	"time"

	rediscache "github.com/go-redis/cache"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo/bson"
)

const policyCacheExpiration = 1 * time.Hour

// PolicyStore is a read-through cache in front of the per-guild
// watchdog config collection. A nil codec disables caching and reads
// go straight to mongodb.
type PolicyStore struct {
	codec *rediscache.Codec
}

func NewPolicyStore(codec *rediscache.Codec) *PolicyStore {
	return &PolicyStore{codec: codec}
}

func policyCacheKey(guildID string) string {
	return "stachio:watchdog:config:" + guildID
}

// Get returns the policy for $guildID, or the default policy if the
// guild never ran setup
func (p *PolicyStore) Get(guildID string) (config models.WatchdogConfigEntry, err error) {
	if p.codec != nil {
		if err = p.codec.Get(policyCacheKey(guildID), &config); err == nil {
			return config, nil
		}
	}

	err = helpers.MdbOne(
		helpers.MdbCollection(models.WatchdogConfigTable).Find(bson.M{"guildid": guildID}),
		&config,
	)
	if helpers.IsMdbNotFound(err) {
		return models.WatchdogConfigEntry{}.Default(guildID), nil
	}
	if err != nil {
		return config, err
	}

	if p.codec != nil {
		cacheErr := p.codec.Set(&rediscache.Item{
			Key:        policyCacheKey(guildID),
			Object:     config,
			Expiration: policyCacheExpiration,
		})
		if cacheErr != nil {
			cache.GetLogger().WithField("module", "watchdog").Warnf(
				"could not cache policy for guild %s: %s", guildID, cacheErr.Error())
		}
	}

	return config, nil
}

// Set writes the policy and invalidates the cached copy
func (p *PolicyStore) Set(config models.WatchdogConfigEntry) error {
	err := helpers.MDbUpsert(models.WatchdogConfigTable, bson.M{"guildid": config.GuildID}, bson.M{"$set": bson.M{
		"guildid":         config.GuildID,
		"enabled":         config.Enabled,
		"logchannelid":    config.LogChannelID,
		"roleid":          config.RoleID,
		"actiononflagged": config.ActionOnFlagged,
		"actiononperm":    config.ActionOnPerm,
		"actiononauto":    config.ActionOnAuto,
	}})
	if err != nil {
		return err
	}

	if p.codec != nil {
		p.codec.Delete(policyCacheKey(config.GuildID))
	}

	return nil
}
