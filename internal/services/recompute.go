package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cosmossdk.io/math"
	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/introfi/commission-engine/internal/db"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/observability/metrics"
	"github.com/introfi/commission-engine/internal/observability/tracing"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/rs/zerolog/log"
)

type RecomputeRequest struct {
	PartnerID  string
	ChainID    string
	FromPeriod uint64
	ToPeriod   uint64
	Force      bool
}

// periodOutcome is what one period contributes to the job summary. For a
// skipped period the lines are the previously stored ones.
type periodOutcome struct {
	lines          []*model.CommissionLineDocument
	skipped        bool
	diagnostics    []string
	wallets        map[string]struct{}
	agreementFound bool
}

// Recompute runs the attribution engine over an inclusive period range and
// replaces the stored commission lines period by period. Jobs touching the
// same (partner, chain) are serialized; within a job the validator units of
// one period run in parallel and are joined before the period is written.
func (s *Service) Recompute(ctx context.Context, req RecomputeRequest) (*model.RecomputeJobDocument, error) {
	periods, err := s.validateRange(ctx, req)
	if err != nil {
		return nil, err
	}

	agreement, err := s.db.GetAgreementByPartner(ctx, req.PartnerID)
	if err != nil {
		if !db.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load agreement for partner %s: %w", req.PartnerID, err)
		}
		agreement = nil
	}

	job := model.NewRecomputeJobDocument(
		uuid.New().String(), req.PartnerID, req.ChainID, req.FromPeriod, req.ToPeriod, req.Force,
	)
	if err := s.db.SaveRecomputeJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create recompute job: %w", err)
	}

	ctx = tracing.InjectJobID(ctx, job.ID)
	logger := log.Ctx(ctx)

	lockKey := req.PartnerID + ":" + req.ChainID
	if err := s.jobLocks.Acquire(ctx, lockKey); err != nil {
		return job, s.failJob(ctx, job, fmt.Sprintf("cancelled while waiting for job lock: %v", err))
	}
	defer s.jobLocks.Release(lockKey)

	if err := s.db.UpdateRecomputeJobStatus(ctx, job.ID, types.JobStatusRunning, ""); err != nil {
		return job, fmt.Errorf("failed to mark job running: %w", err)
	}
	metrics.IncActiveJobs()
	defer metrics.DecActiveJobs()

	startTime := time.Now()
	logger.Info().
		Str("partner_id", req.PartnerID).
		Str("chain_id", req.ChainID).
		Uint64("from_period", req.FromPeriod).
		Uint64("to_period", req.ToPeriod).
		Bool("force", req.Force).
		Msg("Starting recompute job")

	summary := newSummaryAccumulator()
	for _, period := range periods {
		// Cancellation is honored between period boundaries only: each
		// period's write set is transactional, so stopping here can never
		// strand a half-written period.
		select {
		case <-ctx.Done():
			return job, s.failJob(ctx, job, fmt.Sprintf("job cancelled before period %d", period.PeriodID))
		default:
		}

		outcome, err := s.processPeriod(ctx, job, agreement, req, period.PeriodID)
		if err != nil {
			if types.IsInvalidRuleError(err) {
				return job, s.failJob(ctx, job, err.Error())
			}
			return job, s.failJob(ctx, job, fmt.Sprintf("period %d: %v", period.PeriodID, err))
		}

		summary.add(outcome)

		processed, skipped := uint64(1), uint64(0)
		linesWritten := uint64(len(outcome.lines))
		if outcome.skipped {
			processed, skipped, linesWritten = 0, 1, 0
			metrics.AddPeriodsSkipped(1)
		} else {
			metrics.AddPeriodsProcessed(1)
			metrics.AddLinesWritten(linesWritten)
		}
		if err := s.db.UpdateRecomputeJobProgress(
			ctx, job.ID, processed, skipped, linesWritten, outcome.diagnostics,
		); err != nil {
			return job, s.failJob(ctx, job, fmt.Sprintf("failed to update job progress: %v", err))
		}
	}

	if err := s.db.SaveCommissionSummary(ctx, summary.document(job)); err != nil {
		return job, s.failJob(ctx, job, fmt.Sprintf("failed to save summary: %v", err))
	}
	if err := s.db.UpdateRecomputeJobStatus(ctx, job.ID, types.JobStatusSuccess, ""); err != nil {
		return job, fmt.Errorf("failed to mark job successful: %w", err)
	}
	metrics.RecordRecomputeDuration(time.Since(startTime), req.ChainID, false)

	final, err := s.db.GetRecomputeJob(ctx, job.ID)
	if err != nil {
		return job, nil
	}

	logger.Info().
		Uint64("periods_processed", final.PeriodsProcessed).
		Uint64("periods_skipped", final.PeriodsSkipped).
		Uint64("lines_written", final.LinesWritten).
		Int("diagnostics", len(final.Diagnostics)).
		Msg("Recompute job finished")
	return final, nil
}

// validateRange fails fast on an inverted range or one touching
// non-finalized or unknown periods.
func (s *Service) validateRange(ctx context.Context, req RecomputeRequest) ([]*model.PeriodDocument, error) {
	if req.FromPeriod > req.ToPeriod {
		return nil, &types.InvalidPeriodRangeError{
			From:    req.FromPeriod,
			To:      req.ToPeriod,
			Message: "from period is after to period",
		}
	}

	periods, err := s.db.GetPeriodsInRange(ctx, req.ChainID, req.FromPeriod, req.ToPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to load periods: %w", err)
	}

	if expected := req.ToPeriod - req.FromPeriod + 1; uint64(len(periods)) != expected {
		return nil, &types.InvalidPeriodRangeError{
			From:    req.FromPeriod,
			To:      req.ToPeriod,
			Message: fmt.Sprintf("range covers %d periods but only %d are known on chain %s", expected, len(periods), req.ChainID),
		}
	}
	for _, period := range periods {
		if !period.Finalized {
			return nil, &types.InvalidPeriodRangeError{
				From:    req.FromPeriod,
				To:      req.ToPeriod,
				Message: fmt.Sprintf("period %d is not finalized", period.PeriodID),
			}
		}
	}
	return periods, nil
}

// processPeriod computes and atomically replaces the line set of a single
// period, or skips it when the input digest is unchanged and force is off.
func (s *Service) processPeriod(
	ctx context.Context,
	job *model.RecomputeJobDocument,
	agreement *model.AgreementDocument,
	req RecomputeRequest,
	periodID uint64,
) (*periodOutcome, error) {
	snap, err := s.loadPeriodSnapshot(ctx, req.ChainID, periodID)
	if err != nil {
		return nil, err
	}

	pc := newPeriodComputation(ctx, req.PartnerID, agreement, snap)
	inputHash := snap.ContentHash()

	if !req.Force {
		digest, err := s.db.GetPeriodDigest(ctx, req.PartnerID, req.ChainID, periodID)
		if err != nil && !db.IsNotFoundError(err) {
			return nil, err
		}
		if digest != nil && digest.InputHash == inputHash {
			existing, err := s.db.GetCommissionLines(ctx, req.PartnerID, req.ChainID, periodID, periodID)
			if err != nil {
				return nil, err
			}
			log.Ctx(ctx).Debug().
				Uint64("period_id", periodID).
				Msg("Inputs unchanged, skipping period")
			return &periodOutcome{
				lines:          existing,
				skipped:        true,
				wallets:        pc.partnerWallets,
				agreementFound: pc.agreementFound(),
			}, nil
		}
	}

	validators := snap.ValidatorKeys()
	results := make([]unitResult, len(validators))
	errs := make([]error, len(validators))

	group := s.pool.NewGroupContext(ctx)
	for i, validatorKey := range validators {
		group.Submit(func() {
			results[i], errs[i] = pc.computeValidator(ctx, validatorKey)
		})
	}
	// Join barrier: the period's line set must be complete before anything
	// is written or summarized.
	if err := group.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var lines []*model.CommissionLineDocument
	var diagnostics []string
	for _, result := range results {
		lines = append(lines, result.Lines...)
		diagnostics = append(diagnostics, result.Diagnostics...)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })

	computedAt := time.Now().UTC()
	for _, line := range lines {
		line.JobID = job.ID
		line.ComputedAt = computedAt
	}

	digest := &model.PeriodDigestDocument{
		ID:         model.PeriodDigestKey(req.PartnerID, req.ChainID, periodID),
		PartnerID:  req.PartnerID,
		ChainID:    req.ChainID,
		PeriodID:   periodID,
		InputHash:  inputHash,
		LineCount:  uint64(len(lines)),
		ComputedAt: computedAt,
	}

	err = retry.Do(
		func() error {
			return s.db.ReplaceCommissionLines(ctx, req.PartnerID, req.ChainID, periodID, lines, digest)
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n).
				Uint64("period_id", periodID).
				Msg("Retrying commission line replacement")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to replace commission lines: %w", err)
	}

	return &periodOutcome{
		lines:          lines,
		diagnostics:    diagnostics,
		wallets:        pc.partnerWallets,
		agreementFound: pc.agreementFound(),
	}, nil
}

func (s *Service) failJob(ctx context.Context, job *model.RecomputeJobDocument, reason string) error {
	log.Ctx(ctx).Error().Str("reason", reason).Msg("Recompute job failed")
	metrics.RecordRecomputeDuration(time.Since(job.StartedAt), job.ChainID, true)

	if err := s.db.UpdateRecomputeJobStatus(ctx, job.ID, types.JobStatusFailed, reason); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to mark job as failed")
	}
	return fmt.Errorf("recompute job %s failed: %s", job.ID, reason)
}

type summaryAccumulator struct {
	total          math.Int
	perComponent   map[string]math.Int
	wallets        map[string]struct{}
	validators     map[string]struct{}
	agreementFound bool
}

func newSummaryAccumulator() *summaryAccumulator {
	return &summaryAccumulator{
		total:        math.ZeroInt(),
		perComponent: make(map[string]math.Int),
		wallets:      make(map[string]struct{}),
		validators:   make(map[string]struct{}),
	}
}

// add folds one period's outcome into the running totals. Final amounts are
// used, so carried-over overrides are reflected in the summary.
func (a *summaryAccumulator) add(outcome *periodOutcome) {
	for _, line := range outcome.lines {
		amount, ok := math.NewIntFromString(line.FinalAmount)
		if !ok {
			continue
		}
		a.total = a.total.Add(amount)

		current, ok := a.perComponent[line.Component]
		if !ok {
			current = math.ZeroInt()
		}
		a.perComponent[line.Component] = current.Add(amount)

		if line.ValidatorKey != nil {
			a.validators[*line.ValidatorKey] = struct{}{}
		}
	}
	for wallet := range outcome.wallets {
		a.wallets[wallet] = struct{}{}
	}
	if outcome.agreementFound {
		a.agreementFound = true
	}
}

func (a *summaryAccumulator) document(job *model.RecomputeJobDocument) *model.CommissionSummaryDocument {
	subtotals := make(map[string]string, len(a.perComponent))
	for component, amount := range a.perComponent {
		subtotals[component] = amount.String()
	}

	return &model.CommissionSummaryDocument{
		ID:                job.ID,
		PartnerID:         job.PartnerID,
		ChainID:           job.ChainID,
		FromPeriod:        job.FromPeriod,
		ToPeriod:          job.ToPeriod,
		TotalCommission:   a.total.String(),
		ComponentSubtotal: subtotals,
		WalletCount:       uint64(len(a.wallets)),
		ValidatorCount:    uint64(len(a.validators)),
		AgreementFound:    a.agreementFound,
		ComputedAt:        time.Now().UTC(),
	}
}
