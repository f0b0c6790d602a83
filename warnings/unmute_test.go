package warnings

import (
	"errors"
	"testing"
	"time"

	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo/bson"
)

type fakeMuteSource struct {
	entries []models.MuteEntry
	deleted []bson.ObjectId
}

func (s *fakeMuteSource) ExpiredMutes(now time.Time) (expired []models.MuteEntry, err error) {
	for _, entry := range s.entries {
		if !entry.UnmuteAt.After(now) {
			expired = append(expired, entry)
		}
	}
	return expired, nil
}

func (s *fakeMuteSource) DeleteMute(id bson.ObjectId) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestSweepExpiredMutesRemovesRoleAndRow(t *testing.T) {
	expiredID := bson.NewObjectId()
	source := &fakeMuteSource{entries: []models.MuteEntry{
		{ID: expiredID, GuildID: "guild1", UserID: "user1", RoleID: "muted", UnmuteAt: time.Now().Add(-time.Minute)},
		{ID: bson.NewObjectId(), GuildID: "guild1", UserID: "user2", RoleID: "muted", UnmuteAt: time.Now().Add(time.Hour)},
	}}

	var unmuted []string
	removed, err := SweepExpiredMutes(source, func(guildID, userID, roleID string) error {
		unmuted = append(unmuted, guildID+"/"+userID+"/"+roleID)
		return nil
	})
	if err != nil {
		t.Fatalf("sweep failed: %s", err.Error())
	}

	if removed != 1 {
		t.Fatalf("expected 1 removed mute, got %d", removed)
	}
	if len(unmuted) != 1 || unmuted[0] != "guild1/user1/muted" {
		t.Fatalf("expected only the expired mute to be lifted, got %v", unmuted)
	}
	if len(source.deleted) != 1 || source.deleted[0] != expiredID {
		t.Fatalf("expected the expired row to be deleted")
	}
}

func TestSweepExpiredMutesKeepsRowOnFailedRemoval(t *testing.T) {
	source := &fakeMuteSource{entries: []models.MuteEntry{
		{ID: bson.NewObjectId(), GuildID: "guild1", UserID: "gone", RoleID: "muted", UnmuteAt: time.Now().Add(-time.Minute)},
		{ID: bson.NewObjectId(), GuildID: "guild1", UserID: "user2", RoleID: "muted", UnmuteAt: time.Now().Add(-time.Minute)},
	}}

	removed, err := SweepExpiredMutes(source, func(guildID, userID, roleID string) error {
		if userID == "gone" {
			return errors.New("missing permissions")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("sweep failed: %s", err.Error())
	}

	if removed != 1 {
		t.Fatalf("expected 1 removed mute, got %d", removed)
	}
	if len(source.deleted) != 1 || source.deleted[0] != source.entries[1].ID {
		t.Fatalf("a failed role removal must keep the row for the next pass")
	}
}
