package services

import (
	"testing"

	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/introfi/commission-engine/testutil"
	"github.com/stretchr/testify/assert"
)

func TestContentHashIsOrderIndependent(t *testing.T) {
	factA := testutil.RevenueFact(testChain, 5, "val-a", types.ComponentExecFees, "100")
	factB := testutil.RevenueFact(testChain, 5, "val-b", types.ComponentExecFees, "200")
	eventA := testutil.StakeEvent(testChain, 5, "val-a", "wallet-a", "10")
	eventB := testutil.StakeEvent(testChain, 5, "val-b", "wallet-b", "20")

	forward := &PeriodSnapshot{
		Period:      testutil.FinalizedPeriod(testChain, 5),
		Facts:       []*model.RevenueFactDocument{factA, factB},
		StakeEvents: []*model.StakeEventDocument{eventA, eventB},
	}
	forward.sortInputs()

	reversed := &PeriodSnapshot{
		Period:      testutil.FinalizedPeriod(testChain, 5),
		Facts:       []*model.RevenueFactDocument{factB, factA},
		StakeEvents: []*model.StakeEventDocument{eventB, eventA},
	}
	reversed.sortInputs()

	assert.Equal(t, forward.ContentHash(), reversed.ContentHash())
}

func TestContentHashChangesWithInputs(t *testing.T) {
	base := &PeriodSnapshot{
		Period: testutil.FinalizedPeriod(testChain, 5),
		Facts: []*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, "val-a", types.ComponentExecFees, "100"),
		},
	}
	base.sortInputs()

	amended := &PeriodSnapshot{
		Period: testutil.FinalizedPeriod(testChain, 5),
		Facts: []*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, "val-a", types.ComponentExecFees, "101"),
		},
	}
	amended.sortInputs()

	assert.NotEqual(t, base.ContentHash(), amended.ContentHash())

	// A correction pass over the same amount also changes the hash
	repassed := &PeriodSnapshot{
		Period: testutil.FinalizedPeriod(testChain, 5),
		Facts: []*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, "val-a", types.ComponentExecFees, "100"),
		},
	}
	repassed.Facts[0].Pass = 2
	repassed.sortInputs()

	assert.NotEqual(t, base.ContentHash(), repassed.ContentHash())
}

func TestValidatorKeysDistinctAndSorted(t *testing.T) {
	snap := &PeriodSnapshot{
		Facts: []*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, "val-b", types.ComponentExecFees, "1"),
			testutil.RevenueFact(testChain, 5, "val-a", types.ComponentExecFees, "2"),
			testutil.RevenueFact(testChain, 5, "val-b", types.ComponentMevTips, "3"),
		},
	}

	assert.Equal(t, []string{"val-a", "val-b"}, snap.ValidatorKeys())
}
