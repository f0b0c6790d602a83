package watchdog

import (
	"github.com/Stachio-Dev/Stachio/models"
)

// OutcomeTag names what actually happened during an enforcement
type OutcomeTag string

const (
	OutcomeWarned            OutcomeTag = "WARNED"
	OutcomeKicked            OutcomeTag = "KICKED"
	OutcomeBanned            OutcomeTag = "BANNED"
	OutcomeRoleAdded         OutcomeTag = "ROLE_ADDED"
	OutcomeRoleNotConfigured OutcomeTag = "ROLE_NOT_CONFIGURED"
	OutcomeRoleNotFound      OutcomeTag = "ROLE_NOT_FOUND"
	OutcomeSkippedCleared    OutcomeTag = "SKIPPED_CLEARED"
	OutcomeActionFailed      OutcomeTag = "ACTION_FAILED"
	OutcomeUnknownAction     OutcomeTag = "UNKNOWN_ACTION"
)

// Outcome is the full result of one enforcement pass. ActionErr is
// only set when Tag is ACTION_FAILED, it is bookkeeping for the audit
// entry and never re-raised.
type Outcome struct {
	Action    models.WatchdogAction
	Tag       OutcomeTag
	Notified  bool
	Audited   bool
	ActionErr error
}

// Applied is true when a punitive side effect landed or was a
// deliberate no-op (WARN), false for skips and failures
func (o Outcome) Applied() bool {
	switch o.Tag {
	case OutcomeWarned, OutcomeKicked, OutcomeBanned, OutcomeRoleAdded:
		return true
	}
	return false
}
