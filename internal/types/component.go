package types

import "fmt"

// Enum values for revenue components of a validator's per-period P&L
type RevenueComponent string

const (
	ComponentExecFees    RevenueComponent = "EXEC_FEES"
	ComponentMevTips     RevenueComponent = "MEV_TIPS"
	ComponentVoteRewards RevenueComponent = "VOTE_REWARDS"
	ComponentCommission  RevenueComponent = "COMMISSION"
)

func (c RevenueComponent) String() string {
	return string(c)
}

// AllRevenueComponents returns the closed set of components in a fixed order
func AllRevenueComponents() []RevenueComponent {
	return []RevenueComponent{
		ComponentExecFees,
		ComponentMevTips,
		ComponentVoteRewards,
		ComponentCommission,
	}
}

func ParseRevenueComponent(s string) (RevenueComponent, error) {
	switch RevenueComponent(s) {
	case ComponentExecFees, ComponentMevTips, ComponentVoteRewards, ComponentCommission:
		return RevenueComponent(s), nil
	}
	return "", fmt.Errorf("unknown revenue component %q", s)
}
