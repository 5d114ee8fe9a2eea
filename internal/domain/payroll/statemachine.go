package payroll

// Period lifecycle. processing is a transient generation lock, never a
// long-lived operator-visible state; approved and paid are immutable; void is
// terminal and reversible only by creating a new period.
var transitions = map[string]map[string]bool{
	PeriodStatusDraft: {
		PeriodStatusProcessing: true,
		PeriodStatusApproved:   true,
		PeriodStatusVoid:       true,
	},
	PeriodStatusProcessing: {
		PeriodStatusDraft:    true,
		PeriodStatusApproved: true,
		PeriodStatusVoid:     true,
	},
	PeriodStatusApproved: {
		PeriodStatusPaid: true,
		PeriodStatusVoid: true,
	},
	PeriodStatusPaid: {},
	PeriodStatusVoid: {},
}

func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// GuardTransition returns a StateConflictError when the transition is not in
// the machine.
func GuardTransition(from, to string) error {
	if !CanTransition(from, to) {
		return &StateConflictError{Current: from, Attempted: to}
	}
	return nil
}

// Mutable reports whether the period's entries can still change. Adjustments
// additionally require that no generation run holds the period lock.
func Mutable(status string) bool {
	return status == PeriodStatusDraft || status == PeriodStatusProcessing
}

func Terminal(status string) bool {
	return status == PeriodStatusPaid || status == PeriodStatusVoid
}
