package watchdog

import (
	"errors"
	"strings"
	"testing"

	"github.com/Stachio-Dev/Stachio/models"
)

type fakeCounters struct {
	subjects map[models.WatchdogStatus]int
	appeals  map[models.AppealStatus]int
	err      error
}

func (c *fakeCounters) CountByStatus(status models.WatchdogStatus) (int, error) {
	return c.subjects[status], c.err
}

func (c *fakeCounters) Count(status models.AppealStatus) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if status == "" {
		total := 0
		for _, count := range c.appeals {
			total += count
		}
		return total, nil
	}
	return c.appeals[status], nil
}

func TestReporterSend(t *testing.T) {
	counters := &fakeCounters{
		subjects: map[models.WatchdogStatus]int{
			models.WatchdogStatusFlagged:     12,
			models.WatchdogStatusAutoFlagged: 3,
		},
		appeals: map[models.AppealStatus]int{
			models.AppealStatusApproved: 2,
			models.AppealStatusPending:  1,
		},
	}
	membership := &fakeMembership{}

	reporter := &Reporter{
		Subjects:   counters,
		Appeals:    counters,
		Membership: membership,
		ChannelID:  "report",
	}

	err := reporter.Send()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if len(membership.embeds) != 1 || membership.embeds[0] != "report" {
		t.Fatalf("expected one report embed in the report channel, got %v", membership.embeds)
	}
}

func TestReporterCountFailure(t *testing.T) {
	counters := &fakeCounters{err: errors.New("database down")}
	membership := &fakeMembership{}

	reporter := &Reporter{
		Subjects:   counters,
		Appeals:    counters,
		Membership: membership,
		ChannelID:  "report",
	}

	err := reporter.Send()
	if err == nil || !strings.Contains(err.Error(), "database down") {
		t.Fatalf("expected the count error to surface, got %v", err)
	}
	if len(membership.embeds) != 0 {
		t.Fatalf("expected no report on a count failure")
	}
}
