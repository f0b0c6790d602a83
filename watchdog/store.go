package watchdog

import (
	"time"

	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	jsoniter "github.com/json-iterator/go"
)

// SubjectStore is the mongodb-backed subject registry
type SubjectStore struct{}

// Subject returns the record for $userID, nil if the user is not tracked
func (s *SubjectStore) Subject(userID string) (*models.WatchdogUserEntry, error) {
	var entry models.WatchdogUserEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.WatchdogUsersTable).Find(bson.M{"userid": userID}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "subject lookup failed")
	}
	return &entry, nil
}

// Create inserts a new subject, evidence is marshalled to an opaque
// JSON payload
func (s *SubjectStore) Create(entry models.WatchdogUserEntry, evidence interface{}) error {
	if evidence != nil {
		text, err := jsoniter.MarshalToString(evidence)
		if err != nil {
			return errors.Wrap(err, "evidence encode failed")
		}
		entry.Evidence = text
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := helpers.MDbInsert(models.WatchdogUsersTable, entry)
	return err
}

func (s *SubjectStore) Update(entry models.WatchdogUserEntry) error {
	return helpers.MDbUpdate(models.WatchdogUsersTable, entry.ID, entry)
}

// Upsert writes the record keyed by user id, used by the auto-flag
// path which must tolerate racing message events
func (s *SubjectStore) Upsert(entry models.WatchdogUserEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.ID = ""

	return helpers.MDbUpsert(models.WatchdogUsersTable, bson.M{"userid": entry.UserID}, bson.M{"$set": bson.M{
		"userid":       entry.UserID,
		"lastusername": entry.LastUsername,
		"lastavatar":   entry.LastAvatar,
		"status":       entry.Status,
		"reason":       entry.Reason,
		"evidence":     entry.Evidence,
		"createdat":    entry.CreatedAt,
	}})
}

// Delete removes the subject and cascades the removal of their appeals
func (s *SubjectStore) Delete(userID string) error {
	err := helpers.MdbDeleteQuery(models.WatchdogUsersTable, bson.M{"userid": userID})
	if err != nil {
		return err
	}

	_, err = helpers.MdbDeleteAllQuery(models.AppealsTable, bson.M{"userid": userID})
	return err
}

// DeleteByID removes a single record by its case id, used for
// orphaned entries whose user id no longer resolves
func (s *SubjectStore) DeleteByID(id bson.ObjectId) error {
	return helpers.MDbDelete(models.WatchdogUsersTable, id)
}

// SetStatus updates only the status field
func (s *SubjectStore) SetStatus(userID string, status models.WatchdogStatus) error {
	return helpers.MDbUpsert(models.WatchdogUsersTable,
		bson.M{"userid": userID}, bson.M{"$set": bson.M{"status": status}})
}

// CountByStatus counts subjects with the given status
func (s *SubjectStore) CountByStatus(status models.WatchdogStatus) (int, error) {
	return helpers.MdbCount(models.WatchdogUsersTable, bson.M{"status": status})
}

// NextUnlogged pages through subjects the broadcast loop has not yet
// announced, ordered by id
func (s *SubjectStore) NextUnlogged(afterID bson.ObjectId, limit int) (entries []models.WatchdogUserEntry, err error) {
	query := bson.M{
		"logged": false,
		"status": bson.M{"$in": []models.WatchdogStatus{
			models.WatchdogStatusFlagged,
			models.WatchdogStatusPermFlagged,
			models.WatchdogStatusAutoFlagged,
		}},
	}
	if afterID != "" {
		query["_id"] = bson.M{"$gt": afterID}
	}

	err = helpers.MdbCollection(models.WatchdogUsersTable).
		Find(query).Sort("_id").Limit(limit).All(&entries)
	return entries, err
}

func (s *SubjectStore) MarkLogged(id bson.ObjectId) error {
	return helpers.MDbUpdate(models.WatchdogUsersTable, id, bson.M{"$set": bson.M{"logged": true}})
}

// AppealStore is the mongodb-backed appeal ledger
type AppealStore struct{}

// LatestAppeal returns the most recent appeal for $userID, nil if none
func (s *AppealStore) LatestAppeal(userID string) (*models.AppealEntry, error) {
	var entry models.AppealEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.AppealsTable).Find(bson.M{"userid": userID}).Sort("-createdat"),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "appeal lookup failed")
	}
	return &entry, nil
}

// PendingAppeal returns the pending appeal for $userID, nil if none
func (s *AppealStore) PendingAppeal(userID string) (*models.AppealEntry, error) {
	var entry models.AppealEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.AppealsTable).Find(
			bson.M{"userid": userID, "status": models.AppealStatusPending}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *AppealStore) Create(entry models.AppealEntry) error {
	if entry.Status == "" {
		entry.Status = models.AppealStatusPending
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := helpers.MDbInsert(models.AppealsTable, entry)
	return err
}

// Resolve closes an appeal with a moderator decision
func (s *AppealStore) Resolve(id bson.ObjectId, status models.AppealStatus, moderatorID, response string) error {
	return helpers.MDbUpdate(models.AppealsTable, id, bson.M{"$set": bson.M{
		"status":            status,
		"moderatorid":       moderatorID,
		"moderatorresponse": response,
	}})
}

// Count counts appeals by status, empty status counts all appeals
func (s *AppealStore) Count(status models.AppealStatus) (int, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	return helpers.MdbCount(models.AppealsTable, query)
}
