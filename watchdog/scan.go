package watchdog

import (
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/metrics"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/bwmarrin/discordgo"
)

// ScanPageSize is how many candidates fit on one confirmation page
const ScanPageSize = 5

// SubjectSource resolves a user id to their subject record
type SubjectSource interface {
	Subject(userID string) (*models.WatchdogUserEntry, error)
}

// Candidate is one member a scan would enforce against
type Candidate struct {
	Member  Member
	Subject models.WatchdogUserEntry
	Action  models.WatchdogAction
}

// Scanner builds and applies bulk enforcement over a guild's member
// list. Application is strictly sequential with a fixed delay between
// members so the gateway's rate limits are not overwhelmed.
type Scanner struct {
	Engine   *Engine
	Subjects SubjectSource
	Delay    time.Duration

	sleep func(time.Duration)
}

func NewScanner(engine *Engine, subjects SubjectSource, delay time.Duration) *Scanner {
	return &Scanner{
		Engine:   engine,
		Subjects: subjects,
		Delay:    delay,
		sleep:    time.Sleep,
	}
}

// Candidates filters the member list down to tracked subjects and
// resolves the action each would receive. Bots and users without a
// subject record are skipped, lookup failures skip the member.
func (s *Scanner) Candidates(guild *discordgo.Guild, policy models.WatchdogConfigEntry, members []*discordgo.Member) (candidates []Candidate) {
	log := cache.GetLogger().WithField("module", "watchdog")

	for _, member := range members {
		if member.User == nil || member.User.Bot {
			continue
		}

		subject, err := s.Subjects.Subject(member.User.ID)
		if err != nil {
			log.Warnf("skipping %s in scan: %s", member.User.ID, err.Error())
			continue
		}
		if subject == nil || subject.Status == models.WatchdogStatusNone {
			continue
		}

		candidates = append(candidates, Candidate{
			Member: Member{
				GuildID:   guild.ID,
				GuildName: guild.Name,
				UserID:    member.User.ID,
				Username:  member.User.Username,
				AvatarURL: discordgo.EndpointUserAvatar(member.User.ID, member.User.Avatar),
			},
			Subject: *subject,
			Action:  models.ParseWatchdogAction(string(policy.ActionFor(subject.Status))),
		})
	}

	return candidates
}

// Pages chunks the candidate set for the confirmation prompt
func Pages(candidates []Candidate) (pages [][]Candidate) {
	for i := 0; i < len(candidates); i += ScanPageSize {
		end := i + ScanPageSize
		if end > len(candidates) {
			end = len(candidates)
		}
		pages = append(pages, candidates[i:end])
	}
	return pages
}

// Apply enforces every candidate in order, sleeping between members.
// Per-candidate failures are swallowed, the returned count covers
// candidates whose action actually landed.
func (s *Scanner) Apply(policy models.WatchdogConfigEntry, candidates []Candidate) (applied int) {
	log := cache.GetLogger().WithField("module", "watchdog")

	for i, candidate := range candidates {
		if i > 0 && s.Delay > 0 {
			s.sleep(s.Delay)
		}

		outcome := s.Engine.Enforce(candidate.Subject, policy, candidate.Member)
		if outcome.Applied() {
			applied++
			continue
		}
		log.Infof("scan did not apply an action to %s: %s", candidate.Member.UserID, outcome.Tag)
	}

	metrics.ScansRun.Add(1)
	return applied
}
