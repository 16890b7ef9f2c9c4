package services

import (
	"testing"
	"time"

	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/introfi/commission-engine/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRulesVersionSelection(t *testing.T) {
	cutover := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	agreement := &model.AgreementDocument{
		ID:        "agreement-1",
		PartnerID: testPartner,
		Versions: []model.AgreementVersion{
			{
				Version:        1,
				EffectiveFrom:  time.Unix(0, 0).UTC(),
				EffectiveUntil: &cutover,
				Rules:          []model.AgreementRule{testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 100)},
			},
			{
				Version:       2,
				EffectiveFrom: cutover,
				Rules:         []model.AgreementRule{testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 200)},
			},
		},
	}

	t.Run("before cutover", func(t *testing.T) {
		version, rules := resolveRules(agreement, testChain, testValidator, cutover.Add(-time.Hour), types.ComponentExecFees)
		assert.Equal(t, uint32(1), version)
		require.Len(t, rules, 1)
		assert.Equal(t, uint32(100), rules[0].RateBps)
	})
	t.Run("effective-until is exclusive", func(t *testing.T) {
		version, rules := resolveRules(agreement, testChain, testValidator, cutover, types.ComponentExecFees)
		assert.Equal(t, uint32(2), version)
		require.Len(t, rules, 1)
		assert.Equal(t, uint32(200), rules[0].RateBps)
	})
	t.Run("before any version", func(t *testing.T) {
		version, rules := resolveRules(agreement, testChain, testValidator,
			time.Unix(0, 0).UTC().Add(-time.Hour), types.ComponentExecFees)
		assert.Equal(t, uint32(0), version)
		assert.Empty(t, rules)
	})
	t.Run("nil agreement", func(t *testing.T) {
		version, rules := resolveRules(nil, testChain, testValidator, cutover, types.ComponentExecFees)
		assert.Equal(t, uint32(0), version)
		assert.Empty(t, rules)
	})
}

func TestResolveRulesScopeFilters(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	wildcard := testutil.Rule(3, types.ComponentExecFees, types.MethodFixedShare, 50)
	chainScoped := testutil.Rule(1, types.ComponentExecFees, types.MethodFixedShare, 100)
	chainScoped.ChainID = testutil.Ptr(testChain)
	otherChain := testutil.Rule(2, types.ComponentExecFees, types.MethodFixedShare, 150)
	otherChain.ChainID = testutil.Ptr("othernet-1")
	validatorScoped := testutil.Rule(4, types.ComponentExecFees, types.MethodFixedShare, 200)
	validatorScoped.ValidatorKey = testutil.Ptr("val-other")
	inactive := testutil.Rule(5, types.ComponentExecFees, types.MethodFixedShare, 250)
	inactive.Active = false
	otherComponent := testutil.Rule(6, types.ComponentMevTips, types.MethodFixedShare, 300)

	agreement := &model.AgreementDocument{
		ID:        "agreement-1",
		PartnerID: testPartner,
		Versions: []model.AgreementVersion{
			{
				Version:       1,
				EffectiveFrom: time.Unix(0, 0).UTC(),
				Rules: []model.AgreementRule{
					wildcard, chainScoped, otherChain, validatorScoped, inactive, otherComponent,
				},
			},
		},
	}

	version, rules := resolveRules(agreement, testChain, testValidator, now, types.ComponentExecFees)
	assert.Equal(t, uint32(1), version)
	require.Len(t, rules, 2)

	// Matching rules stack, ordered by rule order
	assert.Equal(t, uint32(1), rules[0].Order)
	assert.Equal(t, uint32(3), rules[1].Order)
}

func TestValidateRule(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodStakeWeight, 10000)
		rule.Floor = testutil.Ptr("0")
		rule.Cap = testutil.Ptr("1000000")
		assert.NoError(t, validateRule(rule))
	})
	t.Run("bad component", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodStakeWeight, 100)
		rule.Component = "GAS_REBATES"
		assert.True(t, types.IsInvalidRuleError(validateRule(rule)))
	})
	t.Run("bad method", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodStakeWeight, 100)
		rule.Method = "FLAT_FEE"
		assert.True(t, types.IsInvalidRuleError(validateRule(rule)))
	})
	t.Run("rate out of range", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodStakeWeight, 10001)
		assert.True(t, types.IsInvalidRuleError(validateRule(rule)))
	})
	t.Run("negative floor", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodStakeWeight, 100)
		rule.Floor = testutil.Ptr("-1")
		assert.True(t, types.IsInvalidRuleError(validateRule(rule)))
	})
	t.Run("unparseable cap", func(t *testing.T) {
		rule := testutil.Rule(1, types.ComponentExecFees, types.MethodStakeWeight, 100)
		rule.Cap = testutil.Ptr("1.5e9")
		assert.True(t, types.IsInvalidRuleError(validateRule(rule)))
	})
}
