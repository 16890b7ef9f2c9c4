package db

import (
	"context"
	"time"

	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/observability/metrics"
	"github.com/introfi/commission-engine/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) UpsertPeriod(ctx context.Context, period *model.PeriodDocument) error {
	return d.run("UpsertPeriod", func() error {
		return d.db.UpsertPeriod(ctx, period)
	})
}

func (d *DbWithMetrics) GetPeriod(ctx context.Context, chainID string, periodID uint64) (result *model.PeriodDocument, err error) {
	//nolint:errcheck
	d.run("GetPeriod", func() error {
		result, err = d.db.GetPeriod(ctx, chainID, periodID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetPeriodsInRange(ctx context.Context, chainID string, from, to uint64) (result []*model.PeriodDocument, err error) {
	//nolint:errcheck
	d.run("GetPeriodsInRange", func() error {
		result, err = d.db.GetPeriodsInRange(ctx, chainID, from, to)
		return err
	})
	return
}

func (d *DbWithMetrics) GetChainIDs(ctx context.Context) (result []string, err error) {
	//nolint:errcheck
	d.run("GetChainIDs", func() error {
		result, err = d.db.GetChainIDs(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLatestFinalizedPeriod(ctx context.Context, chainID string) (result *model.PeriodDocument, err error) {
	//nolint:errcheck
	d.run("GetLatestFinalizedPeriod", func() error {
		result, err = d.db.GetLatestFinalizedPeriod(ctx, chainID)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveRevenueFact(ctx context.Context, fact *model.RevenueFactDocument) error {
	return d.run("SaveRevenueFact", func() error {
		return d.db.SaveRevenueFact(ctx, fact)
	})
}

func (d *DbWithMetrics) GetRevenueFacts(ctx context.Context, chainID string, periodID uint64) (result []*model.RevenueFactDocument, err error) {
	//nolint:errcheck
	d.run("GetRevenueFacts", func() error {
		result, err = d.db.GetRevenueFacts(ctx, chainID, periodID)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveStakeEvent(ctx context.Context, event *model.StakeEventDocument) error {
	return d.run("SaveStakeEvent", func() error {
		return d.db.SaveStakeEvent(ctx, event)
	})
}

func (d *DbWithMetrics) GetStakeEvents(ctx context.Context, chainID string, periodID uint64) (result []*model.StakeEventDocument, err error) {
	//nolint:errcheck
	d.run("GetStakeEvents", func() error {
		result, err = d.db.GetStakeEvents(ctx, chainID, periodID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetStakeEventsByValidator(ctx context.Context, chainID string, periodID uint64, validatorKey string) (result []*model.StakeEventDocument, err error) {
	//nolint:errcheck
	d.run("GetStakeEventsByValidator", func() error {
		result, err = d.db.GetStakeEventsByValidator(ctx, chainID, periodID, validatorKey)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveStakerReward(ctx context.Context, reward *model.StakerRewardDocument) error {
	return d.run("SaveStakerReward", func() error {
		return d.db.SaveStakerReward(ctx, reward)
	})
}

func (d *DbWithMetrics) GetStakerRewards(ctx context.Context, chainID string, periodID uint64, validatorKey string) (result []*model.StakerRewardDocument, err error) {
	//nolint:errcheck
	d.run("GetStakerRewards", func() error {
		result, err = d.db.GetStakerRewards(ctx, chainID, periodID, validatorKey)
		return err
	})
	return
}

func (d *DbWithMetrics) AssignPartnerWallet(ctx context.Context, wallet *model.PartnerWalletDocument) error {
	return d.run("AssignPartnerWallet", func() error {
		return d.db.AssignPartnerWallet(ctx, wallet)
	})
}

func (d *DbWithMetrics) GetPartnerWallet(ctx context.Context, chainID, wallet string) (result *model.PartnerWalletDocument, err error) {
	//nolint:errcheck
	d.run("GetPartnerWallet", func() error {
		result, err = d.db.GetPartnerWallet(ctx, chainID, wallet)
		return err
	})
	return
}

func (d *DbWithMetrics) GetPartnerWallets(ctx context.Context, chainID string, wallets []string) (result []*model.PartnerWalletDocument, err error) {
	//nolint:errcheck
	d.run("GetPartnerWallets", func() error {
		result, err = d.db.GetPartnerWallets(ctx, chainID, wallets)
		return err
	})
	return
}

func (d *DbWithMetrics) DeactivatePartnerWallet(ctx context.Context, chainID, wallet string) error {
	return d.run("DeactivatePartnerWallet", func() error {
		return d.db.DeactivatePartnerWallet(ctx, chainID, wallet)
	})
}

func (d *DbWithMetrics) UpsertAgreement(ctx context.Context, agreement *model.AgreementDocument) error {
	return d.run("UpsertAgreement", func() error {
		return d.db.UpsertAgreement(ctx, agreement)
	})
}

func (d *DbWithMetrics) GetAgreementByPartner(ctx context.Context, partnerID string) (result *model.AgreementDocument, err error) {
	//nolint:errcheck
	d.run("GetAgreementByPartner", func() error {
		result, err = d.db.GetAgreementByPartner(ctx, partnerID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetPartnersWithAgreements(ctx context.Context) (result []string, err error) {
	//nolint:errcheck
	d.run("GetPartnersWithAgreements", func() error {
		result, err = d.db.GetPartnersWithAgreements(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) ReplaceCommissionLines(ctx context.Context, partnerID, chainID string, periodID uint64, lines []*model.CommissionLineDocument, digest *model.PeriodDigestDocument) error {
	return d.run("ReplaceCommissionLines", func() error {
		return d.db.ReplaceCommissionLines(ctx, partnerID, chainID, periodID, lines, digest)
	})
}

func (d *DbWithMetrics) GetCommissionLine(ctx context.Context, lineID string) (result *model.CommissionLineDocument, err error) {
	//nolint:errcheck
	d.run("GetCommissionLine", func() error {
		result, err = d.db.GetCommissionLine(ctx, lineID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetCommissionLines(ctx context.Context, partnerID, chainID string, fromPeriod, toPeriod uint64) (result []*model.CommissionLineDocument, err error) {
	//nolint:errcheck
	d.run("GetCommissionLines", func() error {
		result, err = d.db.GetCommissionLines(ctx, partnerID, chainID, fromPeriod, toPeriod)
		return err
	})
	return
}

func (d *DbWithMetrics) SetCommissionLineOverride(ctx context.Context, lineID string, override *model.CommissionOverride) error {
	return d.run("SetCommissionLineOverride", func() error {
		return d.db.SetCommissionLineOverride(ctx, lineID, override)
	})
}

func (d *DbWithMetrics) ClearCommissionLineOverride(ctx context.Context, lineID string) error {
	return d.run("ClearCommissionLineOverride", func() error {
		return d.db.ClearCommissionLineOverride(ctx, lineID)
	})
}

func (d *DbWithMetrics) GetPeriodDigest(ctx context.Context, partnerID, chainID string, periodID uint64) (result *model.PeriodDigestDocument, err error) {
	//nolint:errcheck
	d.run("GetPeriodDigest", func() error {
		result, err = d.db.GetPeriodDigest(ctx, partnerID, chainID, periodID)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveOverrideEvent(ctx context.Context, event *model.OverrideEventDocument) error {
	return d.run("SaveOverrideEvent", func() error {
		return d.db.SaveOverrideEvent(ctx, event)
	})
}

func (d *DbWithMetrics) GetLatestOverrideEvent(ctx context.Context, lineID string) (result *model.OverrideEventDocument, err error) {
	//nolint:errcheck
	d.run("GetLatestOverrideEvent", func() error {
		result, err = d.db.GetLatestOverrideEvent(ctx, lineID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetOverrideEvents(ctx context.Context, lineID string) (result []*model.OverrideEventDocument, err error) {
	//nolint:errcheck
	d.run("GetOverrideEvents", func() error {
		result, err = d.db.GetOverrideEvents(ctx, lineID)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveRecomputeJob(ctx context.Context, job *model.RecomputeJobDocument) error {
	return d.run("SaveRecomputeJob", func() error {
		return d.db.SaveRecomputeJob(ctx, job)
	})
}

func (d *DbWithMetrics) UpdateRecomputeJobStatus(ctx context.Context, jobID string, status types.JobStatus, failureReason string) error {
	return d.run("UpdateRecomputeJobStatus", func() error {
		return d.db.UpdateRecomputeJobStatus(ctx, jobID, status, failureReason)
	})
}

func (d *DbWithMetrics) UpdateRecomputeJobProgress(ctx context.Context, jobID string, periodsProcessed, periodsSkipped, linesWritten uint64, diagnostics []string) error {
	return d.run("UpdateRecomputeJobProgress", func() error {
		return d.db.UpdateRecomputeJobProgress(ctx, jobID, periodsProcessed, periodsSkipped, linesWritten, diagnostics)
	})
}

func (d *DbWithMetrics) GetRecomputeJob(ctx context.Context, jobID string) (result *model.RecomputeJobDocument, err error) {
	//nolint:errcheck
	d.run("GetRecomputeJob", func() error {
		result, err = d.db.GetRecomputeJob(ctx, jobID)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveCommissionSummary(ctx context.Context, summary *model.CommissionSummaryDocument) error {
	return d.run("SaveCommissionSummary", func() error {
		return d.db.SaveCommissionSummary(ctx, summary)
	})
}

func (d *DbWithMetrics) CalculateCommissionStatsAggregated(ctx context.Context) (total string, lines uint64, partnerStats []*PartnerStatsResult, err error) {
	//nolint:errcheck
	d.run("CalculateCommissionStatsAggregated", func() error {
		total, lines, partnerStats, err = d.db.CalculateCommissionStatsAggregated(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertOverallStats(ctx context.Context, totalCommission string, totalLines, partnerCount uint64) error {
	return d.run("UpsertOverallStats", func() error {
		return d.db.UpsertOverallStats(ctx, totalCommission, totalLines, partnerCount)
	})
}

func (d *DbWithMetrics) UpsertPartnerStats(ctx context.Context, stats *PartnerStatsResult) error {
	return d.run("UpsertPartnerStats", func() error {
		return d.db.UpsertPartnerStats(ctx, stats)
	})
}

func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
