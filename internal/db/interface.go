package db

import (
	"context"

	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	// Periods
	UpsertPeriod(ctx context.Context, period *model.PeriodDocument) error
	GetPeriod(ctx context.Context, chainID string, periodID uint64) (*model.PeriodDocument, error)
	GetPeriodsInRange(ctx context.Context, chainID string, from, to uint64) ([]*model.PeriodDocument, error)
	GetChainIDs(ctx context.Context) ([]string, error)
	GetLatestFinalizedPeriod(ctx context.Context, chainID string) (*model.PeriodDocument, error)

	// Revenue facts
	SaveRevenueFact(ctx context.Context, fact *model.RevenueFactDocument) error
	GetRevenueFacts(ctx context.Context, chainID string, periodID uint64) ([]*model.RevenueFactDocument, error)

	// Stake events and staker-level reward detail
	SaveStakeEvent(ctx context.Context, event *model.StakeEventDocument) error
	GetStakeEvents(ctx context.Context, chainID string, periodID uint64) ([]*model.StakeEventDocument, error)
	GetStakeEventsByValidator(ctx context.Context, chainID string, periodID uint64, validatorKey string) ([]*model.StakeEventDocument, error)
	SaveStakerReward(ctx context.Context, reward *model.StakerRewardDocument) error
	GetStakerRewards(ctx context.Context, chainID string, periodID uint64, validatorKey string) ([]*model.StakerRewardDocument, error)

	// Partner wallets
	AssignPartnerWallet(ctx context.Context, wallet *model.PartnerWalletDocument) error
	GetPartnerWallet(ctx context.Context, chainID, wallet string) (*model.PartnerWalletDocument, error)
	GetPartnerWallets(ctx context.Context, chainID string, wallets []string) ([]*model.PartnerWalletDocument, error)
	DeactivatePartnerWallet(ctx context.Context, chainID, wallet string) error

	// Agreements
	UpsertAgreement(ctx context.Context, agreement *model.AgreementDocument) error
	GetAgreementByPartner(ctx context.Context, partnerID string) (*model.AgreementDocument, error)
	GetPartnersWithAgreements(ctx context.Context) ([]string, error)

	// Commission lines
	ReplaceCommissionLines(ctx context.Context, partnerID, chainID string, periodID uint64, lines []*model.CommissionLineDocument, digest *model.PeriodDigestDocument) error
	GetCommissionLine(ctx context.Context, lineID string) (*model.CommissionLineDocument, error)
	GetCommissionLines(ctx context.Context, partnerID, chainID string, fromPeriod, toPeriod uint64) ([]*model.CommissionLineDocument, error)
	SetCommissionLineOverride(ctx context.Context, lineID string, override *model.CommissionOverride) error
	ClearCommissionLineOverride(ctx context.Context, lineID string) error
	GetPeriodDigest(ctx context.Context, partnerID, chainID string, periodID uint64) (*model.PeriodDigestDocument, error)

	// Override audit trail
	SaveOverrideEvent(ctx context.Context, event *model.OverrideEventDocument) error
	GetLatestOverrideEvent(ctx context.Context, lineID string) (*model.OverrideEventDocument, error)
	GetOverrideEvents(ctx context.Context, lineID string) ([]*model.OverrideEventDocument, error)

	// Recompute jobs
	SaveRecomputeJob(ctx context.Context, job *model.RecomputeJobDocument) error
	UpdateRecomputeJobStatus(ctx context.Context, jobID string, status types.JobStatus, failureReason string) error
	UpdateRecomputeJobProgress(ctx context.Context, jobID string, periodsProcessed, periodsSkipped, linesWritten uint64, diagnostics []string) error
	GetRecomputeJob(ctx context.Context, jobID string) (*model.RecomputeJobDocument, error)
	SaveCommissionSummary(ctx context.Context, summary *model.CommissionSummaryDocument) error

	// Stats
	CalculateCommissionStatsAggregated(ctx context.Context) (string, uint64, []*PartnerStatsResult, error)
	UpsertOverallStats(ctx context.Context, totalCommission string, totalLines, partnerCount uint64) error
	UpsertPartnerStats(ctx context.Context, stats *PartnerStatsResult) error
}
