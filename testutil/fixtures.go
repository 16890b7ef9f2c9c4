package testutil

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
)

func Ptr[T any](v T) *T {
	return &v
}

// RandomChainID returns a plausible chain identifier
func RandomChainID() string {
	return fmt.Sprintf("%s-%d", gofakeit.LetterN(7), gofakeit.Number(1, 9))
}

func RandomWallet() string {
	return "wallet-" + gofakeit.LetterN(16)
}

func RandomValidatorKey() string {
	return "val-" + gofakeit.LetterN(12)
}

func RandomPartnerID() string {
	return "partner-" + gofakeit.LetterN(8)
}

// FinalizedPeriod builds a finalized one-day settlement window whose start
// is derived from the period ordinal, so fixtures over a range stay ordered.
func FinalizedPeriod(chainID string, periodID uint64) *model.PeriodDocument {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(periodID) * 24 * time.Hour)
	return model.NewPeriodDocument(chainID, periodID, start, start.Add(24*time.Hour), true)
}

func RevenueFact(chainID string, periodID uint64, validatorKey string, component types.RevenueComponent, amount string) *model.RevenueFactDocument {
	return model.NewRevenueFactDocument(chainID, periodID, validatorKey, component, amount)
}

// StakeEvent builds a stake snapshot row active since period zero with the
// staker as its own withdrawer.
func StakeEvent(chainID string, periodID uint64, validatorKey, wallet, amount string) *model.StakeEventDocument {
	return &model.StakeEventDocument{
		ID:               model.StakeEventKey(chainID, periodID, validatorKey, wallet),
		ChainID:          chainID,
		PeriodID:         periodID,
		ValidatorKey:     validatorKey,
		StakerWallet:     wallet,
		WithdrawerWallet: wallet,
		Amount:           amount,
		ActivationPeriod: 0,
	}
}

func StakerReward(chainID string, periodID uint64, validatorKey, wallet string, component types.RevenueComponent, amount string) *model.StakerRewardDocument {
	return &model.StakerRewardDocument{
		ID:           model.StakerRewardKey(chainID, periodID, validatorKey, wallet, component),
		ChainID:      chainID,
		PeriodID:     periodID,
		ValidatorKey: validatorKey,
		StakerWallet: wallet,
		Component:    component.String(),
		Amount:       amount,
	}
}

func PartnerWallet(chainID, wallet, partnerID string, introducedAt time.Time) *model.PartnerWalletDocument {
	return model.NewPartnerWalletDocument(chainID, wallet, partnerID, introducedAt)
}

// SingleRuleAgreement wraps one rule in a single open-ended version
// effective from the unix epoch.
func SingleRuleAgreement(partnerID string, rule model.AgreementRule) *model.AgreementDocument {
	return &model.AgreementDocument{
		ID:        "agreement-" + partnerID,
		PartnerID: partnerID,
		Versions: []model.AgreementVersion{
			{
				Version:       1,
				EffectiveFrom: time.Unix(0, 0).UTC(),
				Rules:         []model.AgreementRule{rule},
			},
		},
	}
}

func Rule(order uint32, component types.RevenueComponent, method types.AttributionMethod, rateBps uint32) model.AgreementRule {
	return model.AgreementRule{
		Order:     order,
		Component: component.String(),
		Method:    method.String(),
		RateBps:   rateBps,
		Active:    true,
	}
}
