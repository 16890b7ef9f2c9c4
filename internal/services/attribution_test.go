package services

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/testutil"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChain     = "testnet-1"
	testValidator = "val-aaaa"
	testPartner   = "partner-acme"
	testWallet    = "wallet-1111"
)

func boundWallet(wallet, partnerID string) *model.PartnerWalletDocument {
	return testutil.PartnerWallet(testChain, wallet, partnerID, time.Unix(0, 0).UTC())
}

func testSnapshot(periodID uint64, facts []*model.RevenueFactDocument, events []*model.StakeEventDocument, wallets ...*model.PartnerWalletDocument) *PeriodSnapshot {
	walletMap := make(map[string]*model.PartnerWalletDocument)
	for _, w := range wallets {
		walletMap[w.Wallet] = w
	}
	snap := &PeriodSnapshot{
		Period:      testutil.FinalizedPeriod(testChain, periodID),
		Facts:       facts,
		StakeEvents: events,
		Wallets:     walletMap,
	}
	snap.sortInputs()
	return snap
}

func TestFixedShareAttribution(t *testing.T) {
	snap := testSnapshot(5,
		[]*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, testValidator, types.ComponentExecFees, "800000000"),
		},
		nil,
	)
	agreement := testutil.SingleRuleAgreement(testPartner,
		testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 500))

	pc := newPeriodComputation(context.Background(), testPartner, agreement, snap)
	result, err := pc.computeValidator(context.Background(), testValidator)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	line := result.Lines[0]
	assert.Equal(t, "800000000", line.BaseAmount)
	assert.Equal(t, "40000000", line.PreOverride)
	assert.Equal(t, "40000000", line.FinalAmount)
	assert.Equal(t, uint32(500), line.RateBps)
	assert.Equal(t, uint32(1), line.AgreementVersion)
	assert.Empty(t, result.Diagnostics)
}

func TestStakeWeightTruncatesDown(t *testing.T) {
	snap := testSnapshot(5,
		[]*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, testValidator, types.ComponentMevTips, "1000"),
		},
		[]*model.StakeEventDocument{
			testutil.StakeEvent(testChain, 5, testValidator, testWallet, "1000"),
			testutil.StakeEvent(testChain, 5, testValidator, "wallet-2222", "1000"),
			testutil.StakeEvent(testChain, 5, testValidator, "wallet-3333", "1000"),
		},
		boundWallet(testWallet, testPartner),
	)
	agreement := testutil.SingleRuleAgreement(testPartner,
		testutil.Rule(1, types.ComponentMevTips, types.MethodStakeWeight, 10000))

	pc := newPeriodComputation(context.Background(), testPartner, agreement, snap)
	result, err := pc.computeValidator(context.Background(), testValidator)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	// 1000 * 1000 / 3000 truncates to 333
	assert.Equal(t, "333", result.Lines[0].BaseAmount)
	assert.Equal(t, "333", result.Lines[0].FinalAmount)
}

// The sum of all partners' stake-weighted bases must never exceed the fact
// amount, whatever the remainder does.
func TestStakeWeightConservation(t *testing.T) {
	partners := []string{"partner-a", "partner-b", "partner-c"}
	wallets := []string{"wallet-a", "wallet-b", "wallet-c"}

	facts := []*model.RevenueFactDocument{
		testutil.RevenueFact(testChain, 5, testValidator, types.ComponentMevTips, "1000"),
	}
	var events []*model.StakeEventDocument
	var bindings []*model.PartnerWalletDocument
	for i, wallet := range wallets {
		events = append(events, testutil.StakeEvent(testChain, 5, testValidator, wallet, "1000"))
		bindings = append(bindings, boundWallet(wallet, partners[i]))
	}
	snap := testSnapshot(5, facts, events, bindings...)

	total := math.ZeroInt()
	for _, partnerID := range partners {
		agreement := testutil.SingleRuleAgreement(partnerID,
			testutil.Rule(1, types.ComponentMevTips, types.MethodStakeWeight, 10000))
		pc := newPeriodComputation(context.Background(), partnerID, agreement, snap)
		result, err := pc.computeValidator(context.Background(), testValidator)
		require.NoError(t, err)
		require.Len(t, result.Lines, 1)

		amount, ok := math.NewIntFromString(result.Lines[0].FinalAmount)
		require.True(t, ok)
		total = total.Add(amount)
	}

	assert.True(t, total.LTE(math.NewInt(1000)), "attributed %s out of 1000", total)
	assert.Equal(t, "999", total.String())
}

func TestZeroTotalStakeDegradesToZero(t *testing.T) {
	snap := testSnapshot(5,
		[]*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, testValidator, types.ComponentVoteRewards, "500000"),
		},
		nil,
		boundWallet(testWallet, testPartner),
	)
	agreement := testutil.SingleRuleAgreement(testPartner,
		testutil.Rule(1, types.ComponentVoteRewards, types.MethodStakeWeight, 1000))

	pc := newPeriodComputation(context.Background(), testPartner, agreement, snap)
	result, err := pc.computeValidator(context.Background(), testValidator)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "0", result.Lines[0].FinalAmount)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0], "zero total active stake")
}

// Stake only earns while reward eligible: warm-up stake is excluded, stake
// in its deactivation period still counts.
func TestStakeLifecycleEligibility(t *testing.T) {
	warmup := testutil.StakeEvent(testChain, 5, testValidator, testWallet, "1000")
	warmup.ActivationPeriod = 5

	deactivating := testutil.StakeEvent(testChain, 5, testValidator, "wallet-2222", "600")
	deactivating.DeactivationPeriod = testutil.Ptr(uint64(5))

	dead := testutil.StakeEvent(testChain, 5, testValidator, "wallet-3333", "400")
	dead.DeactivationPeriod = testutil.Ptr(uint64(4))

	snap := testSnapshot(5, nil,
		[]*model.StakeEventDocument{warmup, deactivating, dead},
		boundWallet(testWallet, testPartner),
		boundWallet("wallet-2222", testPartner),
		boundWallet("wallet-3333", testPartner),
	)

	total, partner, partnerWallets := eligibleStakeByValidator(
		context.Background(), snap, testPartner, snap.Period.StartTime)

	assert.Equal(t, "600", total[testValidator].String())
	assert.Equal(t, "600", partner[testValidator].String())
	assert.Equal(t, map[string]struct{}{"wallet-2222": {}}, partnerWallets)
}

func TestRetroactiveIntroductionNotCredited(t *testing.T) {
	snap := testSnapshot(5,
		[]*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, testValidator, types.ComponentMevTips, "1000"),
		},
		[]*model.StakeEventDocument{
			testutil.StakeEvent(testChain, 5, testValidator, testWallet, "1000"),
		},
		// introduced a year after the period start
		testutil.PartnerWallet(testChain, testWallet, testPartner,
			testutil.FinalizedPeriod(testChain, 5).StartTime.Add(365*24*time.Hour)),
	)
	agreement := testutil.SingleRuleAgreement(testPartner,
		testutil.Rule(1, types.ComponentMevTips, types.MethodStakeWeight, 10000))

	pc := newPeriodComputation(context.Background(), testPartner, agreement, snap)
	result, err := pc.computeValidator(context.Background(), testValidator)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "0", result.Lines[0].FinalAmount)
}

func TestClientRevenuePrefersStakerDetail(t *testing.T) {
	snap := testSnapshot(5,
		[]*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, testValidator, types.ComponentExecFees, "10000"),
		},
		[]*model.StakeEventDocument{
			testutil.StakeEvent(testChain, 5, testValidator, testWallet, "1000"),
			testutil.StakeEvent(testChain, 5, testValidator, "wallet-2222", "1000"),
		},
		boundWallet(testWallet, testPartner),
	)
	snap.StakerRewards = []*model.StakerRewardDocument{
		testutil.StakerReward(testChain, 5, testValidator, testWallet, types.ComponentExecFees, "700"),
		testutil.StakerReward(testChain, 5, testValidator, "wallet-2222", types.ComponentExecFees, "9300"),
	}
	snap.sortInputs()

	agreement := testutil.SingleRuleAgreement(testPartner,
		testutil.Rule(1, types.ComponentExecFees, types.MethodClientRevenue, 10000))

	pc := newPeriodComputation(context.Background(), testPartner, agreement, snap)
	result, err := pc.computeValidator(context.Background(), testValidator)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	// Only the partner wallet's detail row counts, not the proportional share
	assert.Equal(t, "700", result.Lines[0].BaseAmount)
}

func TestClientRevenueFallsBackToStakeWeight(t *testing.T) {
	snap := testSnapshot(5,
		[]*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, testValidator, types.ComponentExecFees, "10000"),
		},
		[]*model.StakeEventDocument{
			testutil.StakeEvent(testChain, 5, testValidator, testWallet, "1000"),
			testutil.StakeEvent(testChain, 5, testValidator, "wallet-2222", "3000"),
		},
		boundWallet(testWallet, testPartner),
	)
	agreement := testutil.SingleRuleAgreement(testPartner,
		testutil.Rule(1, types.ComponentExecFees, types.MethodClientRevenue, 10000))

	pc := newPeriodComputation(context.Background(), testPartner, agreement, snap)
	result, err := pc.computeValidator(context.Background(), testValidator)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	// 10000 * 1000 / 4000
	assert.Equal(t, "2500", result.Lines[0].BaseAmount)
}

func TestApplyRateAndBounds(t *testing.T) {
	base := math.NewInt(1000)

	t.Run("truncates toward zero", func(t *testing.T) {
		amount, err := applyRateAndBounds(math.NewInt(999), testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 333))
		require.NoError(t, err)
		assert.Equal(t, "33", amount.String())
	})
	t.Run("cap clamps", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 10000)
		rule.Cap = testutil.Ptr("250")
		amount, err := applyRateAndBounds(base, rule)
		require.NoError(t, err)
		assert.Equal(t, "250", amount.String())
	})
	t.Run("floor raises a positive base", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 1)
		rule.Floor = testutil.Ptr("5")
		amount, err := applyRateAndBounds(base, rule)
		require.NoError(t, err)
		assert.Equal(t, "5", amount.String())
	})
	t.Run("floor never manufactures commission from a zero base", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 1)
		rule.Floor = testutil.Ptr("5")
		amount, err := applyRateAndBounds(math.ZeroInt(), rule)
		require.NoError(t, err)
		assert.Equal(t, "0", amount.String())
	})
	t.Run("cap wins over floor", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 10000)
		rule.Cap = testutil.Ptr("10")
		rule.Floor = testutil.Ptr("100")
		amount, err := applyRateAndBounds(base, rule)
		require.NoError(t, err)
		assert.Equal(t, "100", amount.String())
	})
	t.Run("rate above 10000 bps is rejected", func(t *testing.T) {
		_, err := applyRateAndBounds(base, testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 10001))
		assert.True(t, types.IsInvalidRuleError(err))
	})
}

// Two runs over identical inputs must emit identical lines, down to the
// serialized bytes. ComputedAt and JobID are stamped at persist time, so the
// pure output carries no timestamps.
func TestAttributionIsDeterministic(t *testing.T) {
	validator := testutil.RandomValidatorKey()
	partner := testutil.RandomPartnerID()
	wallet := testutil.RandomWallet()

	snap := testSnapshot(5,
		[]*model.RevenueFactDocument{
			testutil.RevenueFact(testChain, 5, validator, types.ComponentExecFees, "123456789"),
			testutil.RevenueFact(testChain, 5, validator, types.ComponentMevTips, "987654321"),
		},
		[]*model.StakeEventDocument{
			testutil.StakeEvent(testChain, 5, validator, wallet, "7919"),
			testutil.StakeEvent(testChain, 5, validator, testutil.RandomWallet(), "104729"),
		},
		boundWallet(wallet, partner),
	)
	agreement := testutil.SingleRuleAgreement(partner,
		testutil.Rule(1, types.ComponentMevTips, types.MethodStakeWeight, 777))
	agreement.Versions[0].Rules = append(agreement.Versions[0].Rules,
		testutil.Rule(2, types.ComponentExecFees, types.MethodFixedShare, 42))

	first := newPeriodComputation(context.Background(), partner, agreement, snap)
	second := newPeriodComputation(context.Background(), partner, agreement, snap)

	firstResult, err := first.computeValidator(context.Background(), validator)
	require.NoError(t, err)
	secondResult, err := second.computeValidator(context.Background(), validator)
	require.NoError(t, err)

	require.Equal(t, firstResult, secondResult)
}
