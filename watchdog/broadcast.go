package watchdog

import (
	"fmt"
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo/bson"
)

const broadcastBatchSize = 100

// BroadcastRecord is one not-yet-announced entry from a registry
type BroadcastRecord struct {
	ID   bson.ObjectId
	Line string
}

// BroadcastSource pages through records the broadcast loop still has
// to announce and marks them once sent
type BroadcastSource interface {
	NextRecords(afterID bson.ObjectId, limit int) ([]BroadcastRecord, error)
	MarkLogged(id bson.ObjectId) error
}

// Broadcaster announces new block records to a feed channel, one
// message at a time with a fixed delay between sends
type Broadcaster struct {
	Source    BroadcastSource
	ChannelID string
	Delay     time.Duration

	send  func(channelID, content string) error
	sleep func(time.Duration)
}

func NewBroadcaster(source BroadcastSource, channelID string, delay time.Duration) *Broadcaster {
	return &Broadcaster{
		Source:    source,
		ChannelID: channelID,
		Delay:     delay,
		send: func(channelID, content string) error {
			_, err := helpers.SendMessage(channelID, content)
			return err
		},
		sleep: time.Sleep,
	}
}

// Run drains the source, returns how many records were announced.
// A failed send skips the record, it stays unlogged for the next run.
func (b *Broadcaster) Run() (sent int, err error) {
	log := cache.GetLogger().WithField("module", "watchdog")

	var lastID bson.ObjectId
	for {
		records, err := b.Source.NextRecords(lastID, broadcastBatchSize)
		if err != nil {
			return sent, err
		}
		if len(records) == 0 {
			return sent, nil
		}

		for _, record := range records {
			if sent > 0 && b.Delay > 0 {
				b.sleep(b.Delay)
			}

			sendErr := b.send(b.ChannelID, record.Line)
			if sendErr != nil {
				log.Warnf("failed to announce record %s: %s", record.ID.Hex(), sendErr.Error())
				continue
			}

			markErr := b.Source.MarkLogged(record.ID)
			if markErr != nil {
				log.Warnf("failed to mark record %s as logged: %s", record.ID.Hex(), markErr.Error())
			}
			sent++
		}

		lastID = records[len(records)-1].ID
	}
}

// SubjectBroadcastSource adapts the subject registry to the broadcast loop
type SubjectBroadcastSource struct {
	Subjects *SubjectStore
}

func (s *SubjectBroadcastSource) NextRecords(afterID bson.ObjectId, limit int) (records []BroadcastRecord, err error) {
	entries, err := s.Subjects.NextUnlogged(afterID, limit)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		name := entry.LastUsername
		if name == "" {
			name = "Unknown"
		}
		records = append(records, BroadcastRecord{
			ID:   entry.ID,
			Line: fmt.Sprintf("%s : %s (%s)", name, entry.UserID, entry.Reason),
		})
	}
	return records, nil
}

func (s *SubjectBroadcastSource) MarkLogged(id bson.ObjectId) error {
	return s.Subjects.MarkLogged(id)
}

// GuildBroadcastSource adapts the guild blacklist to the broadcast loop
type GuildBroadcastSource struct{}

func (s *GuildBroadcastSource) NextRecords(afterID bson.ObjectId, limit int) (records []BroadcastRecord, err error) {
	query := bson.M{"logged": false, "status": models.GuildStatusBlacklisted}
	if afterID != "" {
		query["_id"] = bson.M{"$gt": afterID}
	}

	var entries []models.BlacklistedGuildEntry
	err = helpers.MdbCollection(models.BlacklistedGuildsTable).
		Find(query).Sort("_id").Limit(limit).All(&entries)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		name := entry.Name
		if name == "" {
			name = "Unknown"
		}
		records = append(records, BroadcastRecord{
			ID:   entry.ID,
			Line: fmt.Sprintf("%s : %s (%s)", name, entry.GuildID, entry.Reason),
		})
	}
	return records, nil
}

func (s *GuildBroadcastSource) MarkLogged(id bson.ObjectId) error {
	return helpers.MDbUpdate(models.BlacklistedGuildsTable, id, bson.M{"$set": bson.M{"logged": true}})
}
