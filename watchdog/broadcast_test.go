package watchdog

import (
	"errors"
	"testing"
	"time"

	"github.com/globalsign/mgo/bson"
)

type fakeBroadcastSource struct {
	records []BroadcastRecord
	logged  []bson.ObjectId
	markErr error
}

func (s *fakeBroadcastSource) NextRecords(afterID bson.ObjectId, limit int) ([]BroadcastRecord, error) {
	var page []BroadcastRecord
	for _, record := range s.records {
		if afterID != "" && record.ID <= afterID {
			continue
		}
		page = append(page, record)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (s *fakeBroadcastSource) MarkLogged(id bson.ObjectId) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.logged = append(s.logged, id)
	return nil
}

func broadcastRecords(n int) []BroadcastRecord {
	records := make([]BroadcastRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, BroadcastRecord{ID: bson.NewObjectId(), Line: "line"})
	}
	return records
}

func TestBroadcasterRunSendsAndMarks(t *testing.T) {
	source := &fakeBroadcastSource{records: broadcastRecords(3)}
	broadcaster := NewBroadcaster(source, "feed", time.Second)

	var sent []string
	var sleeps int
	broadcaster.send = func(channelID, content string) error {
		sent = append(sent, channelID)
		return nil
	}
	broadcaster.sleep = func(time.Duration) { sleeps++ }

	count, err := broadcaster.Run()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if count != 3 {
		t.Fatalf("expected 3 announcements, got %d", count)
	}
	if len(source.logged) != 3 {
		t.Fatalf("expected every record to be marked, got %d", len(source.logged))
	}
	if sleeps != 2 {
		t.Fatalf("expected a delay between sends, got %d sleeps", sleeps)
	}
	for _, channelID := range sent {
		if channelID != "feed" {
			t.Fatalf("announcement went to the wrong channel: %s", channelID)
		}
	}
}

func TestBroadcasterFailedSendStaysUnlogged(t *testing.T) {
	source := &fakeBroadcastSource{records: broadcastRecords(2)}
	broadcaster := NewBroadcaster(source, "feed", 0)

	failed := source.records[0].ID
	broadcaster.send = func(channelID, content string) error {
		if len(source.logged) == 0 && content == "line" && channelID == "feed" {
			// fail exactly once, on the first record
			broadcaster.send = func(string, string) error { return nil }
			return errors.New("channel gone")
		}
		return nil
	}
	broadcaster.sleep = func(time.Duration) {}

	count, err := broadcaster.Run()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if count != 1 {
		t.Fatalf("expected 1 announcement, got %d", count)
	}
	for _, id := range source.logged {
		if id == failed {
			t.Fatalf("a failed send must leave the record unlogged")
		}
	}
}

func TestBroadcasterEmptySource(t *testing.T) {
	broadcaster := NewBroadcaster(&fakeBroadcastSource{}, "feed", 0)
	broadcaster.send = func(string, string) error {
		t.Fatalf("nothing should be sent for an empty source")
		return nil
	}

	count, err := broadcaster.Run()
	if err != nil || count != 0 {
		t.Fatalf("expected a clean zero run, got %d / %v", count, err)
	}
}
