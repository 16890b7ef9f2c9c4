package types

import "fmt"

// Enum values for attribution methods. The set is closed: each method's
// formula lives in the attribution engine, dispatched by a switch.
type AttributionMethod string

const (
	MethodClientRevenue AttributionMethod = "CLIENT_REVENUE"
	MethodStakeWeight   AttributionMethod = "STAKE_WEIGHT"
	MethodFixedShare    AttributionMethod = "FIXED_SHARE"
)

func (m AttributionMethod) String() string {
	return string(m)
}

func ParseAttributionMethod(s string) (AttributionMethod, error) {
	switch AttributionMethod(s) {
	case MethodClientRevenue, MethodStakeWeight, MethodFixedShare:
		return AttributionMethod(s), nil
	}
	return "", fmt.Errorf("unknown attribution method %q", s)
}
