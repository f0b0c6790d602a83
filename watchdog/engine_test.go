package watchdog

import (
	"errors"
	"os"
	"testing"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log := logrus.New()
	log.Out = os.Stderr
	log.Level = logrus.PanicLevel
	cache.SetLogger(log)

	os.Exit(m.Run())
}

type fakeMembership struct {
	kicked    []string
	banned    []string
	rolesAdded []string

	dmErr   error
	kickErr error
	banErr  error
	roleErr error

	knownRoles map[string]bool

	// dedupeRoles mirrors discord semantics, assigning a role the
	// member already holds is a no-op rather than a second instance
	dedupeRoles bool
	// memberGone makes further kicks fail once the member was removed
	memberGone bool

	dms    int
	embeds []string
}

func (m *fakeMembership) Kick(guildID, userID, reason string) error {
	if m.kickErr != nil {
		return m.kickErr
	}
	if m.memberGone {
		for _, kicked := range m.kicked {
			if kicked == userID {
				return errors.New("HTTP 404 Not Found, {\"code\": 10007, \"message\": \"Unknown Member\"}")
			}
		}
	}
	m.kicked = append(m.kicked, userID)
	return nil
}

func (m *fakeMembership) Ban(guildID, userID, reason string) error {
	if m.banErr != nil {
		return m.banErr
	}
	m.banned = append(m.banned, userID)
	return nil
}

func (m *fakeMembership) AddRole(guildID, userID, roleID string) error {
	if m.roleErr != nil {
		return m.roleErr
	}
	if m.dedupeRoles {
		for _, held := range m.rolesAdded {
			if held == roleID {
				return nil
			}
		}
	}
	m.rolesAdded = append(m.rolesAdded, roleID)
	return nil
}

func (m *fakeMembership) ResolveRole(guildID, roleID string) (*discordgo.Role, error) {
	if m.knownRoles[roleID] {
		return &discordgo.Role{ID: roleID}, nil
	}
	return nil, errors.New("role not found")
}

func (m *fakeMembership) SendDirectMessage(userID string, embed *discordgo.MessageEmbed) error {
	if m.dmErr != nil {
		return m.dmErr
	}
	m.dms++
	return nil
}

func (m *fakeMembership) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	m.embeds = append(m.embeds, channelID)
	return nil
}

type fakeAppeals struct {
	latest *models.AppealEntry
	err    error
}

func (a *fakeAppeals) LatestAppeal(userID string) (*models.AppealEntry, error) {
	return a.latest, a.err
}

func testMember() Member {
	return Member{
		GuildID:   "guild1",
		GuildName: "Test Guild",
		UserID:    "user1",
		Username:  "testuser",
	}
}

func testPolicy() models.WatchdogConfigEntry {
	policy := models.WatchdogConfigEntry{}.Default("guild1")
	policy.LogChannelID = "log1"
	return policy
}

func TestEnforceAppealedStatusSuppressesEverything(t *testing.T) {
	membership := &fakeMembership{}
	engine := NewEngine(membership, &fakeAppeals{})

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusAppealed}
	outcome := engine.Enforce(subject, testPolicy(), testMember())

	if outcome.Tag != OutcomeSkippedCleared {
		t.Fatalf("expected SKIPPED_CLEARED, got %s", outcome.Tag)
	}
	if membership.dms != 0 || len(membership.kicked) != 0 || len(membership.embeds) != 0 {
		t.Fatalf("expected no side effects for an appealed subject")
	}
}

func TestEnforceApprovedAppealRecordSuppressesEverything(t *testing.T) {
	membership := &fakeMembership{}
	engine := NewEngine(membership, &fakeAppeals{
		latest: &models.AppealEntry{UserID: "user1", Status: models.AppealStatusApproved},
	})

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, testPolicy(), testMember())

	if outcome.Tag != OutcomeSkippedCleared {
		t.Fatalf("expected SKIPPED_CLEARED, got %s", outcome.Tag)
	}
	if membership.dms != 0 || len(membership.kicked) != 0 {
		t.Fatalf("expected no side effects with an approved appeal on record")
	}
}

func TestEnforcePendingAppealDoesNotSuppress(t *testing.T) {
	membership := &fakeMembership{}
	engine := NewEngine(membership, &fakeAppeals{
		latest: &models.AppealEntry{UserID: "user1", Status: models.AppealStatusPending},
	})

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, testPolicy(), testMember())

	if outcome.Tag != OutcomeKicked {
		t.Fatalf("expected KICKED with a pending appeal, got %s", outcome.Tag)
	}
}

func TestEnforceTierPriority(t *testing.T) {
	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogActionWarn
	policy.ActionOnPerm = models.WatchdogActionBan
	policy.ActionOnAuto = models.WatchdogActionKick

	cases := []struct {
		status models.WatchdogStatus
		tag    OutcomeTag
	}{
		{models.WatchdogStatusPermFlagged, OutcomeBanned},
		{models.WatchdogStatusAutoFlagged, OutcomeKicked},
		{models.WatchdogStatusFlagged, OutcomeWarned},
	}

	for _, tc := range cases {
		membership := &fakeMembership{}
		engine := NewEngine(membership, &fakeAppeals{})

		subject := models.WatchdogUserEntry{UserID: "user1", Status: tc.status}
		outcome := engine.Enforce(subject, policy, testMember())
		if outcome.Tag != tc.tag {
			t.Fatalf("status %s: expected %s, got %s", tc.status, tc.tag, outcome.Tag)
		}
	}
}

func TestEnforceBanWithClosedDMStillBans(t *testing.T) {
	membership := &fakeMembership{dmErr: errors.New("cannot send messages to this user")}
	engine := NewEngine(membership, &fakeAppeals{})

	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogActionBan

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, policy, testMember())

	if outcome.Tag != OutcomeBanned {
		t.Fatalf("expected BANNED, got %s", outcome.Tag)
	}
	if outcome.Notified {
		t.Fatalf("expected notified=false with a closed DM")
	}
	if len(membership.banned) != 1 {
		t.Fatalf("expected the ban to land")
	}
	if !outcome.Audited {
		t.Fatalf("expected the audit entry to be emitted")
	}
}

func TestEnforceRoleNotConfigured(t *testing.T) {
	membership := &fakeMembership{}
	engine := NewEngine(membership, &fakeAppeals{})

	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogActionRole
	policy.RoleID = ""

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, policy, testMember())

	if outcome.Tag != OutcomeRoleNotConfigured {
		t.Fatalf("expected ROLE_NOT_CONFIGURED, got %s", outcome.Tag)
	}
	if len(membership.rolesAdded) != 0 {
		t.Fatalf("expected no role call without a configured role")
	}
	if len(membership.embeds) != 1 {
		t.Fatalf("expected the audit entry even without a configured role")
	}
}

func TestEnforceRoleNotFound(t *testing.T) {
	membership := &fakeMembership{knownRoles: map[string]bool{}}
	engine := NewEngine(membership, &fakeAppeals{})

	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogActionRole
	policy.RoleID = "deleted-role"

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, policy, testMember())

	if outcome.Tag != OutcomeRoleNotFound {
		t.Fatalf("expected ROLE_NOT_FOUND, got %s", outcome.Tag)
	}
	if len(membership.rolesAdded) != 0 {
		t.Fatalf("expected no role call for a deleted role")
	}
}

func TestEnforceRoleAdded(t *testing.T) {
	membership := &fakeMembership{knownRoles: map[string]bool{"role1": true}}
	engine := NewEngine(membership, &fakeAppeals{})

	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogActionRole
	policy.RoleID = "role1"

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, policy, testMember())

	if outcome.Tag != OutcomeRoleAdded {
		t.Fatalf("expected ROLE_ADDED, got %s", outcome.Tag)
	}
	if len(membership.rolesAdded) != 1 || membership.rolesAdded[0] != "role1" {
		t.Fatalf("expected role1 to be assigned")
	}
}

func TestEnforceRoleTwiceLeavesOneInstance(t *testing.T) {
	membership := &fakeMembership{knownRoles: map[string]bool{"role1": true}, dedupeRoles: true}
	engine := NewEngine(membership, &fakeAppeals{})

	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogActionRole
	policy.RoleID = "role1"

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	first := engine.Enforce(subject, policy, testMember())
	second := engine.Enforce(subject, policy, testMember())

	if first.Tag != OutcomeRoleAdded {
		t.Fatalf("expected ROLE_ADDED on the first pass, got %s", first.Tag)
	}
	if second.Tag != OutcomeRoleAdded {
		t.Fatalf("expected ROLE_ADDED on the second pass, got %s", second.Tag)
	}
	if len(membership.rolesAdded) != 1 {
		t.Fatalf("expected exactly one role instance after two passes, got %d", len(membership.rolesAdded))
	}
}

func TestEnforceKickTwiceSurfacesMemberGone(t *testing.T) {
	membership := &fakeMembership{memberGone: true}
	engine := NewEngine(membership, &fakeAppeals{})

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	first := engine.Enforce(subject, testPolicy(), testMember())
	second := engine.Enforce(subject, testPolicy(), testMember())

	if first.Tag != OutcomeKicked {
		t.Fatalf("expected KICKED on the first pass, got %s", first.Tag)
	}
	if second.Tag != OutcomeActionFailed {
		t.Fatalf("expected ACTION_FAILED on the second pass, got %s", second.Tag)
	}
	if second.ActionErr == nil {
		t.Fatalf("expected the second pass to keep the kick error")
	}
	if len(membership.kicked) != 1 {
		t.Fatalf("expected a single kick across both passes, got %d", len(membership.kicked))
	}
}

func TestEnforceUnknownActionTakesNoAction(t *testing.T) {
	membership := &fakeMembership{}
	engine := NewEngine(membership, &fakeAppeals{})

	policy := testPolicy()
	policy.ActionOnFlagged = models.WatchdogAction("SHADOWBAN")

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, policy, testMember())

	if outcome.Tag != OutcomeUnknownAction {
		t.Fatalf("expected UNKNOWN_ACTION, got %s", outcome.Tag)
	}
	if len(membership.kicked) != 0 || len(membership.banned) != 0 || len(membership.rolesAdded) != 0 {
		t.Fatalf("expected no punitive side effects for an unknown action")
	}
	if len(membership.embeds) != 1 {
		t.Fatalf("expected the audit entry for an unknown action")
	}
}

func TestEnforceActionFailure(t *testing.T) {
	membership := &fakeMembership{kickErr: errors.New("missing permissions")}
	engine := NewEngine(membership, &fakeAppeals{})

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, testPolicy(), testMember())

	if outcome.Tag != OutcomeActionFailed {
		t.Fatalf("expected ACTION_FAILED, got %s", outcome.Tag)
	}
	if outcome.ActionErr == nil {
		t.Fatalf("expected the action error to be preserved")
	}
	if outcome.Applied() {
		t.Fatalf("a failed action must not count as applied")
	}
	if len(membership.embeds) != 1 {
		t.Fatalf("expected the audit entry even when the action failed")
	}
}

func TestEnforceNoAuditWithoutLogChannel(t *testing.T) {
	membership := &fakeMembership{}
	engine := NewEngine(membership, &fakeAppeals{})

	policy := testPolicy()
	policy.LogChannelID = ""

	subject := models.WatchdogUserEntry{UserID: "user1", Status: models.WatchdogStatusFlagged}
	outcome := engine.Enforce(subject, policy, testMember())

	if len(membership.embeds) != 0 {
		t.Fatalf("expected no audit entry without a log channel")
	}
	if outcome.Audited {
		t.Fatalf("expected audited=false without a log channel")
	}
}
