package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStakeStateAt(t *testing.T) {
	deactivation := uint64(10)

	t.Run("activation period is warm-up", func(t *testing.T) {
		state := StakeStateAt(5, nil, 5)
		assert.Equal(t, StakeStateActivating, state)
		assert.False(t, state.EarnsRewards())
	})
	t.Run("earns from the period after activation", func(t *testing.T) {
		state := StakeStateAt(5, nil, 6)
		assert.Equal(t, StakeStateActive, state)
		assert.True(t, state.EarnsRewards())
	})
	t.Run("open ended stake stays active", func(t *testing.T) {
		assert.Equal(t, StakeStateActive, StakeStateAt(5, nil, 1000))
	})
	t.Run("deactivation period still earns", func(t *testing.T) {
		state := StakeStateAt(5, &deactivation, 10)
		assert.Equal(t, StakeStateDeactivating, state)
		assert.True(t, state.EarnsRewards())
	})
	t.Run("stops earning after deactivation", func(t *testing.T) {
		state := StakeStateAt(5, &deactivation, 11)
		assert.Equal(t, StakeStateDeactivated, state)
		assert.False(t, state.EarnsRewards())
	})
	t.Run("future activation behaves like warm-up", func(t *testing.T) {
		assert.Equal(t, StakeStateActivating, StakeStateAt(7, nil, 5))
	})
}

func TestParseRevenueComponent(t *testing.T) {
	for _, component := range AllRevenueComponents() {
		parsed, err := ParseRevenueComponent(component.String())
		assert.NoError(t, err)
		assert.Equal(t, component, parsed)
	}

	_, err := ParseRevenueComponent("STORAGE_FEES")
	assert.Error(t, err)
}

func TestParseAttributionMethod(t *testing.T) {
	for _, method := range []AttributionMethod{MethodClientRevenue, MethodStakeWeight, MethodFixedShare} {
		parsed, err := ParseAttributionMethod(method.String())
		assert.NoError(t, err)
		assert.Equal(t, method, parsed)
	}

	_, err := ParseAttributionMethod("FLAT_FEE")
	assert.Error(t, err)
}
