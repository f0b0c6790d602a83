package warnings

import (
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/metrics"
	"github.com/Stachio-Dev/Stachio/models"
)

// Store holds warning records and the per-guild escalation config
type Store interface {
	Insert(entry models.WarningEntry) error
	Sum(guildID, userID string, since time.Time) (int, error)
	List(guildID, userID string) ([]models.WarningEntry, error)
	DeleteAll(guildID, userID string) (removed int, err error)
	Config(guildID string) (models.WarningConfigEntry, error)
	SetConfig(config models.WarningConfigEntry) error
}

// Membership applies warning sanctions against the gateway
type Membership interface {
	Mute(guildID, userID string, duration time.Duration, reason string) error
	Kick(guildID, userID, reason string) error
	Ban(guildID, userID, reason string) error
}

// Engine accumulates warning points and fires the configured sanctions
type Engine struct {
	Store      Store
	Membership Membership
}

func NewEngine(store Store, membership Membership) *Engine {
	return &Engine{
		Store:      store,
		Membership: membership,
	}
}

// AddWarning records a warning and returns the point total inside the
// guild's decay window together with the guild config, so the caller
// can report thresholds and invoke EnforceSanctions
func (e *Engine) AddWarning(guildID, userID, moderatorID string, points int, reason string) (total int, config models.WarningConfigEntry, err error) {
	err = e.Store.Insert(models.WarningEntry{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Points:      points,
		Reason:      reason,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return 0, config, err
	}

	config, err = e.Store.Config(guildID)
	if err != nil {
		return 0, config, err
	}

	total, err = e.Total(guildID, userID, config)
	if err != nil {
		return 0, config, err
	}

	metrics.WarningsIssued.Add(1)
	return total, config, nil
}

// Total sums the points of all warnings inside the sliding decay
// window, older records no longer count
func (e *Engine) Total(guildID, userID string, config models.WarningConfigEntry) (int, error) {
	decayDays := config.DecayDays
	if decayDays <= 0 {
		decayDays = 90
	}

	since := time.Now().AddDate(0, 0, -decayDays)
	return e.Store.Sum(guildID, userID, since)
}

// EnforceSanctions applies every configured threshold at or below
// $total. All matching thresholds fire, a user crossing the ban
// threshold is also muted and kicked in the same call, and each
// failure is independent of the others.
// TODO: clarify with product whether only the highest threshold
// should apply, see the warnings design notes.
func (e *Engine) EnforceSanctions(guildID, userID string, total int, config models.WarningConfigEntry) (applied []string) {
	log := cache.GetLogger().WithField("module", "warnings")

	for action, threshold := range config.Thresholds {
		if threshold <= 0 || total < threshold {
			continue
		}

		var err error
		switch action {
		case models.WarningActionMute:
			muteMinutes := config.MuteMinutes
			if muteMinutes <= 0 {
				muteMinutes = 30
			}
			err = e.Membership.Mute(guildID, userID,
				time.Duration(muteMinutes)*time.Minute, "Exceeded mute warning threshold")
		case models.WarningActionKick:
			err = e.Membership.Kick(guildID, userID, "Exceeded kick warning threshold")
		case models.WarningActionBan:
			err = e.Membership.Ban(guildID, userID, "Exceeded ban warning threshold")
		default:
			log.Warnf("unknown warning action configured: %s", action)
			continue
		}

		if err != nil {
			log.Warnf("warning sanction %s on %s failed: %s", action, userID, err.Error())
			continue
		}
		applied = append(applied, action)
	}

	return applied
}

// RemovePoints subtracts points by rewriting the user's warning
// history: every record is deleted and a single synthetic record
// carries the positive remainder, if any. This deliberately collapses
// the per-warning audit trail.
func (e *Engine) RemovePoints(guildID, userID, moderatorID string, points int) (remaining int, err error) {
	entries, err := e.Store.List(guildID, userID)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		remaining += entry.Points
	}
	remaining -= points

	_, err = e.Store.DeleteAll(guildID, userID)
	if err != nil {
		return 0, err
	}

	if remaining > 0 {
		err = e.Store.Insert(models.WarningEntry{
			GuildID:     guildID,
			UserID:      userID,
			ModeratorID: moderatorID,
			Points:      remaining,
			Reason:      "Adjusted points",
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return 0, err
		}
		return remaining, nil
	}

	return 0, nil
}
