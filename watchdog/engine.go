package watchdog

import (
	"fmt"
	"strings"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/metrics"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/bwmarrin/discordgo"
)

// AppealSource looks up the most recent appeal for a user, nil means
// the user never appealed
type AppealSource interface {
	LatestAppeal(userID string) (*models.AppealEntry, error)
}

// Engine decides and applies the configured action for a flagged
// member. It holds no state of its own, everything lives in the
// subject registry and the guild policy.
type Engine struct {
	Membership Membership
	Appeals    AppealSource
}

func NewEngine(membership Membership, appeals AppealSource) *Engine {
	return &Engine{
		Membership: membership,
		Appeals:    appeals,
	}
}

// Enforce notifies the member and applies the policy action for the
// subject's status tier. Expected failure modes (closed DMs, missing
// role, missing permission) are converted into the outcome, never
// raised. Callers must check policy.Enabled themselves.
func (e *Engine) Enforce(subject models.WatchdogUserEntry, policy models.WatchdogConfigEntry, member Member) (outcome Outcome) {
	log := cache.GetLogger().WithField("module", "watchdog")

	// an approved appeal permanently suppresses enforcement, the
	// subject status is the canonical gate, the appeal record is
	// checked as a fallback for call sites racing the status update
	if e.cleared(subject) {
		log.Infof("%s has an approved appeal, ignoring flag", member.Username)
		return Outcome{Tag: OutcomeSkippedCleared}
	}

	outcome.Action = models.ParseWatchdogAction(string(policy.ActionFor(subject.Status)))

	// notify the member about what is going to happen, a closed DM
	// must not abort enforcement
	err := e.Membership.SendDirectMessage(member.UserID, noticeEmbed(subject, member, outcome.Action))
	if err != nil {
		log.Infof("could not DM %s: %s", member.Username, err.Error())
	}
	outcome.Notified = err == nil

	reason := subject.Reason
	if reason == "" {
		reason = "Flagged by the safety system"
	}

	switch outcome.Action {
	case models.WatchdogActionBan:
		err = e.Membership.Ban(member.GuildID, member.UserID, reason)
		if err != nil {
			outcome.Tag, outcome.ActionErr = OutcomeActionFailed, err
		} else {
			outcome.Tag = OutcomeBanned
		}
	case models.WatchdogActionKick:
		err = e.Membership.Kick(member.GuildID, member.UserID, reason)
		if err != nil {
			outcome.Tag, outcome.ActionErr = OutcomeActionFailed, err
		} else {
			outcome.Tag = OutcomeKicked
		}
	case models.WatchdogActionRole:
		outcome.Tag, outcome.ActionErr = e.addRole(policy, member)
	case models.WatchdogActionWarn:
		// the DM above is the whole action
		outcome.Tag = OutcomeWarned
	default:
		log.Warnf("unknown watchdog action configured for guild %s", member.GuildID)
		outcome.Tag = OutcomeUnknownAction
	}
	if outcome.ActionErr != nil {
		log.Warnf("action %s on %s failed: %s", outcome.Action, member.UserID, outcome.ActionErr.Error())
	}

	// the audit entry is emitted even when the action itself failed
	if policy.LogChannelID != "" {
		err = e.Membership.SendEmbed(policy.LogChannelID, auditEmbed(subject, member, outcome))
		if err != nil {
			log.Warnf("could not send audit entry to channel %s: %s", policy.LogChannelID, err.Error())
		}
		outcome.Audited = err == nil
	}

	metrics.EnforcementsExecuted.Add(1)
	log.Infof("action taken on %s: %s", member.Username, outcome.Tag)
	return outcome
}

func (e *Engine) cleared(subject models.WatchdogUserEntry) bool {
	if subject.Status == models.WatchdogStatusAppealed {
		return true
	}

	appeal, err := e.Appeals.LatestAppeal(subject.UserID)
	if err != nil {
		cache.GetLogger().WithField("module", "watchdog").Warnf(
			"could not look up appeal for %s: %s", subject.UserID, err.Error())
		return false
	}

	return appeal != nil && appeal.Status == models.AppealStatusApproved
}

func (e *Engine) addRole(policy models.WatchdogConfigEntry, member Member) (OutcomeTag, error) {
	if policy.RoleID == "" {
		return OutcomeRoleNotConfigured, nil
	}

	role, err := e.Membership.ResolveRole(member.GuildID, policy.RoleID)
	if err != nil || role == nil {
		return OutcomeRoleNotFound, nil
	}

	err = e.Membership.AddRole(member.GuildID, member.UserID, policy.RoleID)
	if err != nil {
		return OutcomeActionFailed, err
	}

	return OutcomeRoleAdded, nil
}

func actionNotice(action models.WatchdogAction) string {
	switch action {
	case models.WatchdogActionRole:
		return "You have automatically been assigned a restricted role."
	case models.WatchdogActionBan:
		return "You are permanently banned from this server."
	case models.WatchdogActionKick:
		return "You have been kicked from this server."
	}
	return "You have received a warning."
}

func noticeEmbed(subject models.WatchdogUserEntry, member Member, action models.WatchdogAction) *discordgo.MessageEmbed {
	reason := subject.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	description := []string{
		fmt.Sprintf("If you are receiving this message, you are flagged in **%s** by the safety system.", member.GuildName),
		"",
		"**Reason:** " + reason,
		"**What This Means?** " + actionNotice(action),
	}

	if len(subject.FoundAt) > 0 {
		provenance := make([]string, 0, len(subject.FoundAt))
		for _, foundAt := range subject.FoundAt {
			provenance = append(provenance, fmt.Sprintf("%s at %s (`%s`)", foundAt.Type, foundAt.GuildName, foundAt.GuildID))
		}
		description = append(description, "", "**Found At:** "+strings.Join(provenance, ", "))
	}

	return &discordgo.MessageEmbed{
		Title:       "⚠ You Have Been Flagged",
		Color:       0xE67E22,
		Description: strings.Join(description, "\n"),
		Footer:      &discordgo.MessageEmbedFooter{Text: "This is an automated system message"},
	}
}

func auditEmbed(subject models.WatchdogUserEntry, member Member, outcome Outcome) *discordgo.MessageEmbed {
	reason := subject.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	return &discordgo.MessageEmbed{
		Title: "🚨 Flagged User Detected",
		Color: 0xE74C3C,
		Description: strings.Join([]string{
			fmt.Sprintf("A flagged user has been detected in **%s**.", member.GuildName),
			"",
			fmt.Sprintf("**User:** %s (%s)", member.Username, member.UserID),
			"**Status:** " + string(subject.Status),
			"**Action Taken:** " + string(outcome.Tag),
			"**Reason:** " + reason,
		}, "\n"),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: member.AvatarURL},
	}
}
