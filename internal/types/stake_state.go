package types

// Enum values for the stake lifecycle state of a stake account within a period
type StakeState string

const (
	StakeStateActivating   StakeState = "ACTIVATING"
	StakeStateActive       StakeState = "ACTIVE"
	StakeStateDeactivating StakeState = "DEACTIVATING"
	StakeStateDeactivated  StakeState = "DEACTIVATED"
)

func (s StakeState) String() string {
	return string(s)
}

// StakeStateAt derives the lifecycle state of a stake account in the given
// period. A nil deactivation period means the stake is still delegated.
func StakeStateAt(activationPeriod uint64, deactivationPeriod *uint64, period uint64) StakeState {
	if activationPeriod == period {
		return StakeStateActivating
	}
	if activationPeriod > period {
		// Snapshot rows for a not-yet-activated stake behave like warm-up
		return StakeStateActivating
	}
	if deactivationPeriod == nil || *deactivationPeriod > period {
		return StakeStateActive
	}
	if *deactivationPeriod == period {
		return StakeStateDeactivating
	}
	return StakeStateDeactivated
}

// EarnsRewards reports whether a stake in this state counts toward reward
// eligibility for the period. A deactivating stake still earns its last
// period; an activating stake never earns during warm-up.
func (s StakeState) EarnsRewards() bool {
	return s == StakeStateActive || s == StakeStateDeactivating
}
