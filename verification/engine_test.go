package verification

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log := logrus.New()
	log.Out = os.Stderr
	log.Level = logrus.PanicLevel
	cache.SetLogger(log)

	os.Exit(m.Run())
}

type fakeStore struct {
	attempts map[string]*models.VerificationAttemptEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{attempts: map[string]*models.VerificationAttemptEntry{}}
}

func (s *fakeStore) key(guildID, userID string) string {
	return guildID + ":" + userID
}

func (s *fakeStore) Attempt(guildID, userID string) (models.VerificationAttemptEntry, error) {
	if entry := s.attempts[s.key(guildID, userID)]; entry != nil {
		return *entry, nil
	}
	return models.VerificationAttemptEntry{GuildID: guildID, UserID: userID}, nil
}

func (s *fakeStore) SetAttempts(guildID, userID string, attempts int) error {
	key := s.key(guildID, userID)
	if s.attempts[key] == nil {
		s.attempts[key] = &models.VerificationAttemptEntry{GuildID: guildID, UserID: userID}
	}
	s.attempts[key].Attempts = attempts
	return nil
}

func (s *fakeStore) MarkVerified(guildID, userID string) error {
	key := s.key(guildID, userID)
	if s.attempts[key] == nil {
		s.attempts[key] = &models.VerificationAttemptEntry{GuildID: guildID, UserID: userID}
	}
	s.attempts[key].Verified = true
	return nil
}

func (s *fakeStore) Clear(guildID, userID string) (removed int, err error) {
	key := s.key(guildID, userID)
	if s.attempts[key] != nil {
		delete(s.attempts, key)
		return 1, nil
	}
	return 0, nil
}

func (s *fakeStore) DeleteIdleBefore(cutoff time.Time) (removed int, err error) {
	for key, entry := range s.attempts {
		if !entry.Verified && entry.LastTriedAt.Before(cutoff) {
			delete(s.attempts, key)
			removed++
		}
	}
	return removed, nil
}

type fakeMembership struct {
	rolesAdded []string
	kicked     []string
	dms        []string
	logLines   []string

	roleErr error
	kickErr error
	dmErr   error
}

func (m *fakeMembership) AddRole(guildID, userID, roleID string) error {
	if m.roleErr != nil {
		return m.roleErr
	}
	m.rolesAdded = append(m.rolesAdded, roleID)
	return nil
}

func (m *fakeMembership) Kick(guildID, userID, reason string) error {
	if m.kickErr != nil {
		return m.kickErr
	}
	m.kicked = append(m.kicked, userID)
	return nil
}

func (m *fakeMembership) SendDirectMessage(userID, content string) error {
	if m.dmErr != nil {
		return m.dmErr
	}
	m.dms = append(m.dms, content)
	return nil
}

func (m *fakeMembership) SendMessage(channelID, content string) error {
	m.logLines = append(m.logLines, content)
	return nil
}

func testConfig() models.VerificationConfigEntry {
	config := models.VerificationConfigEntry{}.Default("guild1")
	config.CorrectEmoji = "🟦"
	config.Emojis = []string{"🟥", "🟦", "🟩"}
	config.VerifiedRoleIDs = []string{"role1", "role2"}
	config.LogsChannelID = "logs"
	config.KickOnFail = true
	return config
}

func TestAttemptCorrectPickVerifies(t *testing.T) {
	store := newFakeStore()
	membership := &fakeMembership{}
	engine := NewEngine(store, membership)

	result, err := engine.Attempt(testConfig(), "user1", "testuser", "🟦")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if result.State != StateVerified {
		t.Fatalf("expected VERIFIED, got %s", result.State)
	}
	if result.RolesGranted != 2 {
		t.Fatalf("expected both roles granted, got %d", result.RolesGranted)
	}
	if !result.Notified {
		t.Fatalf("expected the success DM to be sent")
	}
	if len(membership.logLines) != 1 {
		t.Fatalf("expected one log line, got %d", len(membership.logLines))
	}

	entry, _ := store.Attempt("guild1", "user1")
	if !entry.Verified {
		t.Fatalf("expected the verified latch to be set")
	}
}

func TestAttemptVerifiedIsTerminal(t *testing.T) {
	store := newFakeStore()
	membership := &fakeMembership{}
	engine := NewEngine(store, membership)

	store.MarkVerified("guild1", "user1")

	result, err := engine.Attempt(testConfig(), "user1", "testuser", "🟥")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if result.State != StateAlreadyVerified {
		t.Fatalf("expected ALREADY_VERIFIED, got %s", result.State)
	}
	if len(membership.dms) != 0 || len(membership.kicked) != 0 {
		t.Fatalf("expected no side effects once verified")
	}
}

func TestAttemptThreeWrongPicksLockAndKick(t *testing.T) {
	store := newFakeStore()
	membership := &fakeMembership{}
	engine := NewEngine(store, membership)
	config := testConfig()

	result, err := engine.Attempt(config, "user1", "testuser", "🟥")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if result.State != StateWrongPick || result.AttemptsLeft != 2 {
		t.Fatalf("expected WRONG_PICK with 2 left, got %s / %d", result.State, result.AttemptsLeft)
	}

	result, _ = engine.Attempt(config, "user1", "testuser", "🟩")
	if result.State != StateWrongPick || result.AttemptsLeft != 1 {
		t.Fatalf("expected WRONG_PICK with 1 left, got %s / %d", result.State, result.AttemptsLeft)
	}

	result, _ = engine.Attempt(config, "user1", "testuser", "🟥")
	if result.State != StateLocked {
		t.Fatalf("expected LOCKED on the third wrong pick, got %s", result.State)
	}
	if !result.Kicked {
		t.Fatalf("expected the lockout kick")
	}
	if len(membership.kicked) != 1 {
		t.Fatalf("expected exactly one kick, got %d", len(membership.kicked))
	}
}

func TestAttemptAfterLockoutIsNoOp(t *testing.T) {
	store := newFakeStore()
	membership := &fakeMembership{}
	engine := NewEngine(store, membership)
	config := testConfig()

	store.SetAttempts("guild1", "user1", config.MaxAttempts)

	// even the correct emoji no longer helps
	result, err := engine.Attempt(config, "user1", "testuser", "🟦")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if result.State != StateLocked {
		t.Fatalf("expected LOCKED, got %s", result.State)
	}
	if result.Kicked || len(membership.kicked) != 0 || len(membership.dms) != 0 {
		t.Fatalf("expected no side effects after the lockout transition")
	}
}

func TestAttemptLockWithoutKick(t *testing.T) {
	store := newFakeStore()
	membership := &fakeMembership{}
	engine := NewEngine(store, membership)

	config := testConfig()
	config.KickOnFail = false
	config.MaxAttempts = 1

	result, err := engine.Attempt(config, "user1", "testuser", "🟥")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if result.State != StateLocked {
		t.Fatalf("expected LOCKED, got %s", result.State)
	}
	if result.Kicked || len(membership.kicked) != 0 {
		t.Fatalf("expected no kick with KickOnFail disabled")
	}
	if !result.Notified {
		t.Fatalf("expected the lockout DM")
	}
}

func TestAttemptFailedKickIsReported(t *testing.T) {
	store := newFakeStore()
	membership := &fakeMembership{kickErr: errors.New("missing permissions")}
	engine := NewEngine(store, membership)

	config := testConfig()
	config.MaxAttempts = 1

	result, err := engine.Attempt(config, "user1", "testuser", "🟥")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if result.State != StateLocked || result.Kicked {
		t.Fatalf("expected LOCKED without a kick, got %s / kicked=%v", result.State, result.Kicked)
	}
	if len(membership.logLines) != 1 {
		t.Fatalf("expected the failed kick to be logged to the channel")
	}
}

func TestAttemptFailedRoleStillVerifies(t *testing.T) {
	store := newFakeStore()
	membership := &fakeMembership{roleErr: errors.New("missing permissions")}
	engine := NewEngine(store, membership)

	result, err := engine.Attempt(testConfig(), "user1", "testuser", "🟦")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if result.State != StateVerified {
		t.Fatalf("expected VERIFIED despite the role failure, got %s", result.State)
	}
	if result.RolesGranted != 0 {
		t.Fatalf("expected no granted roles, got %d", result.RolesGranted)
	}
}

func TestClearAttemptsUndoesLockout(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, &fakeMembership{})
	config := testConfig()

	store.SetAttempts("guild1", "user1", config.MaxAttempts)

	removed, err := engine.ClearAttempts("guild1", "user1")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if removed != 1 {
		t.Fatalf("expected one row removed, got %d", removed)
	}

	result, _ := engine.Attempt(config, "user1", "testuser", "🟥")
	if result.State != StateWrongPick {
		t.Fatalf("expected a fresh attempt after the clear, got %s", result.State)
	}
}

func TestSweepExpiredKeepsVerifiedRows(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, &fakeMembership{})

	store.attempts["guild1:stale"] = &models.VerificationAttemptEntry{
		GuildID: "guild1", UserID: "stale",
		Attempts: 1, LastTriedAt: time.Now().Add(-48 * time.Hour),
	}
	store.attempts["guild1:verified"] = &models.VerificationAttemptEntry{
		GuildID: "guild1", UserID: "verified",
		Verified: true, LastTriedAt: time.Now().Add(-48 * time.Hour),
	}

	removed, err := engine.SweepExpired(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if removed != 1 {
		t.Fatalf("expected only the stale unverified row to go, got %d", removed)
	}
	if store.attempts["guild1:verified"] == nil {
		t.Fatalf("expected the verified row to survive the sweep")
	}
}

func TestBuildChallenge(t *testing.T) {
	emojis, correct := BuildChallenge("animals")
	if len(emojis) != 3 {
		t.Fatalf("expected 3 emojis, got %d", len(emojis))
	}

	var found bool
	for _, emoji := range emojis {
		if emoji == correct {
			found = true
		}
	}
	if !found {
		t.Fatalf("the correct emoji must be part of the challenge")
	}

	seen := map[string]bool{}
	for _, emoji := range emojis {
		if seen[emoji] {
			t.Fatalf("challenge emojis must be distinct, %s repeated", emoji)
		}
		seen[emoji] = true
	}

	// unknown categories fall back to the colors pool
	emojis, _ = BuildChallenge("nonsense")
	pool := map[string]bool{}
	for _, emoji := range emojiCategories["colors"] {
		pool[emoji] = true
	}
	for _, emoji := range emojis {
		if !pool[emoji] {
			t.Fatalf("fallback challenge used %s which is not a color", emoji)
		}
	}
}
