package verification

import (
	"time"

	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo/bson"
)

// MongoStore is the mongodb-backed attempt store, rows are upserted so
// concurrent picks for the same member cannot create duplicates
type MongoStore struct{}

// Attempt returns the row for (guildID, userID), lazily creating it on
// the first pick
func (s *MongoStore) Attempt(guildID, userID string) (entry models.VerificationAttemptEntry, err error) {
	err = helpers.MdbOne(
		helpers.MdbCollection(models.VerificationAttemptsTable).Find(
			bson.M{"guildid": guildID, "userid": userID}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		entry = models.VerificationAttemptEntry{
			GuildID:     guildID,
			UserID:      userID,
			LastTriedAt: time.Now(),
		}
		err = helpers.MDbUpsert(models.VerificationAttemptsTable,
			bson.M{"guildid": guildID, "userid": userID},
			bson.M{"$setOnInsert": bson.M{
				"guildid":     guildID,
				"userid":      userID,
				"attempts":    0,
				"verified":    false,
				"lasttriedat": entry.LastTriedAt,
			}},
		)
		return entry, err
	}

	return entry, err
}

func (s *MongoStore) SetAttempts(guildID, userID string, attempts int) error {
	return helpers.MDbUpsert(models.VerificationAttemptsTable,
		bson.M{"guildid": guildID, "userid": userID},
		bson.M{"$set": bson.M{"attempts": attempts, "lasttriedat": time.Now()}},
	)
}

func (s *MongoStore) MarkVerified(guildID, userID string) error {
	return helpers.MDbUpsert(models.VerificationAttemptsTable,
		bson.M{"guildid": guildID, "userid": userID},
		bson.M{"$set": bson.M{"verified": true, "lasttriedat": time.Now()}},
	)
}

func (s *MongoStore) Clear(guildID, userID string) (removed int, err error) {
	return helpers.MdbDeleteAllQuery(models.VerificationAttemptsTable,
		bson.M{"guildid": guildID, "userid": userID})
}

// DeleteIdleBefore removes unverified rows whose last pick is older
// than $cutoff, verified rows stay so the latch survives the sweep
func (s *MongoStore) DeleteIdleBefore(cutoff time.Time) (removed int, err error) {
	return helpers.MdbDeleteAllQuery(models.VerificationAttemptsTable,
		bson.M{"verified": false, "lasttriedat": bson.M{"$lt": cutoff}})
}

// ConfigStore persists the per-guild verification config
type ConfigStore struct{}

func (s *ConfigStore) Config(guildID string) (config models.VerificationConfigEntry, found bool, err error) {
	err = helpers.MdbOne(
		helpers.MdbCollection(models.VerificationConfigTable).Find(bson.M{"guildid": guildID}),
		&config,
	)
	if helpers.IsMdbNotFound(err) {
		return config, false, nil
	}
	if err != nil {
		return config, false, err
	}
	return config, true, nil
}

func (s *ConfigStore) All() (configs []models.VerificationConfigEntry, err error) {
	iter := helpers.MDbIter(helpers.MdbCollection(models.VerificationConfigTable).Find(bson.M{}))

	var config models.VerificationConfigEntry
	for iter.Next(&config) {
		configs = append(configs, config)
	}
	return configs, iter.Close()
}

func (s *ConfigStore) Set(config models.VerificationConfigEntry) error {
	return helpers.MDbUpsert(models.VerificationConfigTable, bson.M{"guildid": config.GuildID}, bson.M{"$set": bson.M{
		"guildid":         config.GuildID,
		"channelid":       config.ChannelID,
		"messageid":       config.MessageID,
		"logschannelid":   config.LogsChannelID,
		"verifiedroleids": config.VerifiedRoleIDs,
		"emojicategory":   config.EmojiCategory,
		"emojis":          config.Emojis,
		"correctemoji":    config.CorrectEmoji,
		"maxattempts":     config.MaxAttempts,
		"kickonfail":      config.KickOnFail,
		"dmonsuccess":     config.DMOnSuccess,
		"dmonfailure":     config.DMOnFailure,
	}})
}
