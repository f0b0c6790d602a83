package watchdog

import (
	"errors"
	"testing"
	"time"

	"github.com/Stachio-Dev/Stachio/models"
	"github.com/bwmarrin/discordgo"
)

type fakeSubjects struct {
	entries map[string]*models.WatchdogUserEntry
	errFor  map[string]error
}

func (s *fakeSubjects) Subject(userID string) (*models.WatchdogUserEntry, error) {
	if err := s.errFor[userID]; err != nil {
		return nil, err
	}
	return s.entries[userID], nil
}

func scanGuild() *discordgo.Guild {
	return &discordgo.Guild{ID: "guild1", Name: "Test Guild"}
}

func guildMember(userID string, bot bool) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user-" + userID, Bot: bot}}
}

func TestScannerCandidatesFiltering(t *testing.T) {
	subjects := &fakeSubjects{
		entries: map[string]*models.WatchdogUserEntry{
			"flagged":  {UserID: "flagged", Status: models.WatchdogStatusFlagged},
			"appealed": {UserID: "appealed", Status: models.WatchdogStatusAppealed},
		},
		errFor: map[string]error{
			"broken": errors.New("lookup failed"),
		},
	}
	scanner := NewScanner(NewEngine(&fakeMembership{}, &fakeAppeals{}), subjects, 0)

	members := []*discordgo.Member{
		guildMember("flagged", false),
		guildMember("appealed", false),
		guildMember("clean", false),
		guildMember("somebot", true),
		guildMember("broken", false),
		{User: nil},
	}

	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogActionBan

	candidates := scanner.Candidates(scanGuild(), policy, members)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Member.UserID != "flagged" || candidates[0].Action != models.WatchdogActionBan {
		t.Fatalf("unexpected first candidate: %+v", candidates[0])
	}
	// the appealed subject is still listed, the engine is what clears it
	if candidates[1].Member.UserID != "appealed" {
		t.Fatalf("expected the appealed subject to remain a candidate, got %s", candidates[1].Member.UserID)
	}
}

func TestScannerPagesChunking(t *testing.T) {
	candidates := make([]Candidate, 12)

	pages := Pages(candidates)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages for 12 candidates, got %d", len(pages))
	}
	if len(pages[0]) != ScanPageSize || len(pages[2]) != 2 {
		t.Fatalf("unexpected page sizes: %d and %d", len(pages[0]), len(pages[2]))
	}

	if Pages(nil) != nil {
		t.Fatalf("expected no pages for an empty candidate set")
	}
}

func TestScannerApplyCountsAndDelays(t *testing.T) {
	membership := &fakeMembership{}
	scanner := NewScanner(NewEngine(membership, &fakeAppeals{}), &fakeSubjects{}, time.Second)

	var sleeps int
	scanner.sleep = func(time.Duration) { sleeps++ }

	candidates := []Candidate{
		{Member: testMember(), Subject: models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}},
		{Member: testMember(), Subject: models.WatchdogUserEntry{UserID: "user2", Status: models.WatchdogStatusAppealed}},
		{Member: testMember(), Subject: models.WatchdogUserEntry{UserID: "user3", Status: models.WatchdogStatusFlagged}},
	}

	applied := scanner.Apply(testPolicy(), candidates)
	if applied != 2 {
		t.Fatalf("expected 2 applied actions, got %d", applied)
	}
	if len(membership.kicked) != 2 {
		t.Fatalf("expected 2 kicks, got %d", len(membership.kicked))
	}
	if sleeps != 2 {
		t.Fatalf("expected a delay before every member after the first, got %d sleeps", sleeps)
	}
}
