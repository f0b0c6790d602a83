package verification

import (
	"fmt"
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/metrics"
	"github.com/Stachio-Dev/Stachio/models"
)

// State is where a member ends up after one pick
type State string

const (
	StateVerified        State = "VERIFIED"
	StateAlreadyVerified State = "ALREADY_VERIFIED"
	StateWrongPick       State = "WRONG_PICK"
	StateLocked          State = "LOCKED"
)

// Result reports one pick, the side effect flags are per-effect so
// callers can tell a failed DM from a failed kick
type Result struct {
	State        State
	AttemptsLeft int
	RolesGranted int
	Kicked       bool
	Notified     bool
}

// Store persists attempt rows keyed by guild and user
type Store interface {
	Attempt(guildID, userID string) (models.VerificationAttemptEntry, error)
	SetAttempts(guildID, userID string, attempts int) error
	MarkVerified(guildID, userID string) error
	Clear(guildID, userID string) (removed int, err error)
	DeleteIdleBefore(cutoff time.Time) (removed int, err error)
}

// Membership performs the verification side effects
type Membership interface {
	AddRole(guildID, userID, roleID string) error
	Kick(guildID, userID, reason string) error
	SendDirectMessage(userID, content string) error
	SendMessage(channelID, content string) error
}

// Engine is the emoji verification state machine. Verified is a
// one-way latch, attempts only ever grow until a moderator clears the
// row or the sweep collects it.
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

// Attempt processes one emoji pick for a member
func (e *Engine) Attempt(config models.VerificationConfigEntry, userID, username, picked string) (result Result, err error) {
	log := cache.GetLogger().WithField("module", "verification")

	attempt, err := e.Store.Attempt(config.GuildID, userID)
	if err != nil {
		return result, err
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	// verified is terminal, any further pick is a no-op
	if attempt.Verified {
		result.State = StateAlreadyVerified
		return result, nil
	}

	// so is the lockout, the kick-or-warn already happened at the
	// transition
	if attempt.Attempts >= maxAttempts {
		result.State = StateLocked
		return result, nil
	}

	if picked == config.CorrectEmoji {
		return e.succeed(config, userID, username)
	}

	newAttempts := attempt.Attempts + 1
	err = e.Store.SetAttempts(config.GuildID, userID, newAttempts)
	if err != nil {
		return result, err
	}

	if newAttempts >= maxAttempts {
		return e.lock(config, userID, username)
	}

	result.State = StateWrongPick
	result.AttemptsLeft = maxAttempts - newAttempts
	if config.DMOnFailure {
		dmErr := e.Membership.SendDirectMessage(userID, fmt.Sprintf(
			"❌ Wrong emoji. Please try again.\n\nAttempts left: **%d**", result.AttemptsLeft))
		result.Notified = dmErr == nil
	}

	log.Infof("%s picked wrong, %d attempt(s) left", username, result.AttemptsLeft)
	return result, nil
}

func (e *Engine) succeed(config models.VerificationConfigEntry, userID, username string) (result Result, err error) {
	log := cache.GetLogger().WithField("module", "verification")

	err = e.Store.MarkVerified(config.GuildID, userID)
	if err != nil {
		return result, err
	}

	result.State = StateVerified
	for _, roleID := range config.VerifiedRoleIDs {
		roleErr := e.Membership.AddRole(config.GuildID, userID, roleID)
		if roleErr != nil {
			log.Warnf("role add %s failed for %s: %s", roleID, userID, roleErr.Error())
			continue
		}
		result.RolesGranted++
	}

	if config.DMOnSuccess {
		dmErr := e.Membership.SendDirectMessage(userID, "✅ You have been verified!")
		result.Notified = dmErr == nil
	}

	e.logLine(config, fmt.Sprintf("✅ %s (%s) successfully verified.", username, userID))
	metrics.VerificationsSucceeded.Add(1)
	return result, nil
}

func (e *Engine) lock(config models.VerificationConfigEntry, userID, username string) (result Result, err error) {
	log := cache.GetLogger().WithField("module", "verification")

	result.State = StateLocked
	metrics.VerificationsLocked.Add(1)

	if !config.KickOnFail {
		if config.DMOnFailure {
			dmErr := e.Membership.SendDirectMessage(userID,
				"🚫 You have failed the verification too many times.\n\nPlease contact a moderator if you believe this was a mistake or need another chance.")
			result.Notified = dmErr == nil
		}
		e.logLine(config, fmt.Sprintf("🚫 %s (%s) reached max attempts.", username, userID))
		return result, nil
	}

	// DM first, a kicked member can no longer receive messages from us
	if config.DMOnFailure {
		dmErr := e.Membership.SendDirectMessage(userID,
			"👢 You have been kicked for failing verification too many times.")
		result.Notified = dmErr == nil
	}

	kickErr := e.Membership.Kick(config.GuildID, userID, "Failed verification too many times")
	if kickErr != nil {
		log.Warnf("could not kick %s after lockout: %s", userID, kickErr.Error())
		e.logLine(config, fmt.Sprintf("⚠ Failed to kick %s (%s). Missing permissions?", username, userID))
		return result, nil
	}

	result.Kicked = true
	e.logLine(config, fmt.Sprintf("👢 %s (%s) was kicked for failing verification.", username, userID))
	return result, nil
}

func (e *Engine) logLine(config models.VerificationConfigEntry, content string) {
	if config.LogsChannelID == "" {
		return
	}

	err := e.Membership.SendMessage(config.LogsChannelID, content)
	if err != nil {
		cache.GetLogger().WithField("module", "verification").Warnf(
			"could not send log line to channel %s: %s", config.LogsChannelID, err.Error())
	}
}

// ClearAttempts destructively resets a member's row, this is the only
// way to undo a lockout or the verified latch
func (e *Engine) ClearAttempts(guildID, userID string) (removed int, err error) {
	return e.Store.Clear(guildID, userID)
}

// SweepExpired garbage-collects rows idle since before $cutoff
func (e *Engine) SweepExpired(cutoff time.Time) (removed int, err error) {
	removed, err = e.Store.DeleteIdleBefore(cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		cache.GetLogger().WithField("module", "verification").Infof(
			"swept %d expired verification attempt(s)", removed)
	}
	return removed, nil
}
