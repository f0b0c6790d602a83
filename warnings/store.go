package warnings

import (
	"time"

	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo/bson"
)

// MongoStore is the mongodb-backed warning store
type MongoStore struct{}

func (s *MongoStore) Insert(entry models.WarningEntry) error {
	_, err := helpers.MDbInsert(models.WarningsTable, entry)
	return err
}

// Sum aggregates the points of all warnings created at or after $since
func (s *MongoStore) Sum(guildID, userID string, since time.Time) (total int, err error) {
	var result struct {
		Total int `bson:"total"`
	}

	err = helpers.MdbCollection(models.WarningsTable).Pipe([]bson.M{
		{"$match": bson.M{
			"guildid":   guildID,
			"userid":    userID,
			"createdat": bson.M{"$gte": since},
		}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$points"},
		}},
	}).One(&result)
	if helpers.IsMdbNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return result.Total, nil
}

func (s *MongoStore) List(guildID, userID string) (entries []models.WarningEntry, err error) {
	err = helpers.MdbCollection(models.WarningsTable).
		Find(bson.M{"guildid": guildID, "userid": userID}).Sort("createdat").All(&entries)
	return entries, err
}

func (s *MongoStore) DeleteAll(guildID, userID string) (removed int, err error) {
	return helpers.MdbDeleteAllQuery(models.WarningsTable, bson.M{"guildid": guildID, "userid": userID})
}

// UpsertMute records an active mute keyed by guild and user, muting
// again extends the existing row
func (s *MongoStore) UpsertMute(entry models.MuteEntry) error {
	return helpers.MDbUpsert(models.MutesTable,
		bson.M{"guildid": entry.GuildID, "userid": entry.UserID},
		bson.M{"$set": bson.M{
			"guildid":  entry.GuildID,
			"userid":   entry.UserID,
			"roleid":   entry.RoleID,
			"unmuteat": entry.UnmuteAt,
		}})
}

// ExpiredMutes returns the mutes that ran out at or before $now
func (s *MongoStore) ExpiredMutes(now time.Time) (entries []models.MuteEntry, err error) {
	err = helpers.MdbCollection(models.MutesTable).
		Find(bson.M{"unmuteat": bson.M{"$lte": now}}).All(&entries)
	return entries, err
}

func (s *MongoStore) DeleteMute(id bson.ObjectId) error {
	return helpers.MDbDelete(models.MutesTable, id)
}

// Config returns the guild's warning config, lazily falling back to
// the default thresholds
func (s *MongoStore) Config(guildID string) (config models.WarningConfigEntry, err error) {
	err = helpers.MdbOne(
		helpers.MdbCollection(models.WarningConfigTable).Find(bson.M{"guildid": guildID}),
		&config,
	)
	if helpers.IsMdbNotFound(err) {
		return models.WarningConfigEntry{}.Default(guildID), nil
	}

	return config, err
}

func (s *MongoStore) SetConfig(config models.WarningConfigEntry) error {
	return helpers.MDbUpsert(models.WarningConfigTable, bson.M{"guildid": config.GuildID}, bson.M{"$set": bson.M{
		"guildid":     config.GuildID,
		"thresholds":  config.Thresholds,
		"muteroleid":  config.MuteRoleID,
		"muteminutes": config.MuteMinutes,
		"decaydays":   config.DecayDays,
	}})
}
