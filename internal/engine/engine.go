// Package engine orchestrates a batch run: per-record normalization,
// validation, and calculation fan out concurrently; the sibling outlier pass
// and all aggregation run behind a barrier once every record for a property
// has completed its per-record phase.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/aggregate"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/calc"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/config"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/extract"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/normalize"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/portfolio"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/store"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/validate"

	"github.com/rotisserie/eris"
)

// RawPayload is one extractor output awaiting processing. PropertyID is
// resolved by the caller from external file-to-property configuration. Data
// holds raw extractor JSON; Payload may carry an already-decoded mapping
// instead.
type RawPayload struct {
	SourceID   string
	PropertyID string
	Data       []byte
	Payload    map[string]any
}

// Engine wires the pipeline stages together for batch runs.
type Engine struct {
	cfg        *config.Config
	store      store.Store // nil disables persistence
	lookup     *portfolio.Lookup
	normalizer *normalize.Normalizer
	validator  *validate.Engine
	calculator *calc.Calculator
	aggregator *aggregate.Aggregator
}

// New creates an Engine. The portfolio lookup is required: every downstream
// metric depends on it.
func New(cfg *config.Config, st store.Store, lookup *portfolio.Lookup) (*Engine, error) {
	if lookup == nil || lookup.Len() == 0 {
		return nil, eris.New("engine: portfolio configuration is required")
	}
	return &Engine{
		cfg:        cfg,
		store:      st,
		lookup:     lookup,
		normalizer: normalize.New(),
		validator:  validate.New(cfg.Policy),
		calculator: calc.New(cfg.Benchmark),
		aggregator: aggregate.New(cfg.Engine.ReconcileToleranceUSD),
	}, nil
}

// Process runs the full batch. Per-record problems are isolated to their
// record and never abort the batch; aggregate-level problems surface as
// warnings in the result and the log.
func (e *Engine) Process(ctx context.Context, payloads []RawPayload, reported []aggregate.ReportedTotal) (*model.RunResult, error) {
	start := time.Now()
	log := zap.L()

	var runID string
	if e.store != nil {
		run, err := e.store.CreateRun(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "engine: create run")
		}
		runID = run.ID
		e.setStatus(ctx, runID, model.RunStatusProcessing)
	}

	// Per-record phase: each payload normalizes, validates, and calculates
	// independently. Slots keep result order stable regardless of scheduling.
	slots := make([]*model.RecordResult, len(payloads))
	var skippedMu sync.Mutex
	var skipped []model.SkippedPayload

	g, gCtx := errgroup.WithContext(ctx)
	limit := e.cfg.Engine.MaxConcurrentRecords
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, p := range payloads {
		i, p := i, p
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			rr, err := e.processOne(p)
			if err != nil {
				log.Warn("engine: payload skipped",
					zap.String("source_id", p.SourceID),
					zap.Error(err),
				)
				skippedMu.Lock()
				skipped = append(skipped, model.SkippedPayload{
					SourceID: p.SourceID,
					Reason:   err.Error(),
				})
				skippedMu.Unlock()
				return nil
			}
			slots[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.setStatus(ctx, runID, model.RunStatusFailed)
		return nil, eris.Wrap(err, "engine: per-record phase")
	}

	results := make([]model.RecordResult, 0, len(slots))
	for _, rr := range slots {
		if rr != nil {
			results = append(results, *rr)
		}
	}

	// Barrier reached: every record's per-record phase is done. The outlier
	// pass needs each property's full history and may re-tier records.
	e.setStatus(ctx, runID, model.RunStatusAggregating)
	e.outlierPass(results)

	result := &model.RunResult{
		Records:     results,
		Skipped:     skipped,
		Buckets:     bucketize(results),
		Monthly:     e.aggregator.MonthlyTotals(results),
		RecordCount: len(results),
	}
	result.Discrepant = discrepanciesOnly(e.aggregator.Reconcile(result.Monthly, reported))
	result.Portfolio = e.aggregator.Portfolio(results, e.lookup.Len(), e.calculator.Classify)
	result.DurationMS = time.Since(start).Milliseconds()

	e.warnBatchLevel(result)

	if e.store != nil {
		if err := e.store.SaveRunResult(ctx, runID, result); err != nil {
			log.Warn("engine: failed to save run result", zap.Error(err))
		}
		e.setStatus(ctx, runID, model.RunStatusComplete)
	}

	log.Info("engine: batch complete",
		zap.Int("payloads", len(payloads)),
		zap.Int("records", len(results)),
		zap.Int("skipped", len(skipped)),
		zap.Int("discrepancies", len(result.Discrepant)),
		zap.Int64("duration_ms", result.DurationMS),
	)
	return result, nil
}

// processOne runs the per-record phase for a single payload.
func (e *Engine) processOne(p RawPayload) (*model.RecordResult, error) {
	payload := p.Payload
	if payload == nil {
		decoded, err := extract.Decode(p.Data)
		if err != nil {
			return nil, err
		}
		payload = decoded
	}

	rec, err := e.normalizer.Normalize(p.SourceID, p.PropertyID, payload)
	if err != nil {
		return nil, err
	}

	prop := e.lookup.ByID(rec.PropertyID)
	vr := e.validator.Validate(rec, prop)
	metrics := e.calculator.Metrics(prop, rec.SourceID, rec.BillingPeriod, rec.AmountDue, e.serviceMonths(prop, rec))

	return &model.RecordResult{
		Record:     *rec,
		Validation: vr,
		Metrics:    metrics,
	}, nil
}

// serviceMonths pairs each configured service with this record's observed
// evidence: invoice tonnage feeds weight-based compactors, and counted
// pickup line items feed the on-call average.
func (e *Engine) serviceMonths(prop *model.Property, rec *model.InvoiceRecord) []calc.ServiceMonth {
	if prop == nil {
		return nil
	}
	months := make([]calc.ServiceMonth, 0, len(prop.Services))
	for _, svc := range prop.Services {
		sm := calc.ServiceMonth{Config: svc}
		if svc.ContainerType == model.ContainerCompactor {
			sm.MonthlyTons = rec.MonthlyTons
		}
		if svc.OnCall {
			sm.ObservedPickups = countPickups(rec.LineItems)
			sm.MonthsObserved = 1
		}
		months = append(months, sm)
	}
	return months
}

// countPickups tallies observed pickup events from pickup-type line items.
// A line without a quantity counts as one event.
func countPickups(items []model.LineItem) float64 {
	var n float64
	for _, li := range items {
		if li.Category != model.CategoryExtraPickup && li.Category != model.CategoryBase {
			continue
		}
		if li.Quantity != nil && *li.Quantity > 0 {
			n += *li.Quantity
		} else {
			n++
		}
	}
	return n
}

// outlierPass groups results by property and runs the cross-record outlier
// check over each property's history.
func (e *Engine) outlierPass(results []model.RecordResult) {
	byProperty := make(map[string][]validate.OutlierItem)
	for i := range results {
		rr := &results[i]
		byProperty[rr.Record.PropertyID] = append(byProperty[rr.Record.PropertyID], validate.OutlierItem{
			Result: &rr.Validation,
			CPD:    rr.Metrics.CPD,
		})
	}
	for _, items := range byProperty {
		e.validator.FlagOutliers(items)
	}
}

// bucketize splits source IDs into the three tier buckets consumed by
// downstream sinks.
func bucketize(results []model.RecordResult) map[model.Tier][]string {
	buckets := map[model.Tier][]string{
		model.TierAutoAccept: {},
		model.TierReview:     {},
		model.TierManual:     {},
	}
	for _, rr := range results {
		buckets[rr.Validation.Tier] = append(buckets[rr.Validation.Tier], rr.Record.SourceID)
	}
	return buckets
}

func discrepanciesOnly(recs []model.Reconciliation) []model.Reconciliation {
	var out []model.Reconciliation
	for _, r := range recs {
		if r.Status == model.Discrepancy {
			out = append(out, r)
		}
	}
	return out
}

// warnBatchLevel surfaces aggregate-level problems for an operator without
// failing the run.
func (e *Engine) warnBatchLevel(result *model.RunResult) {
	for _, d := range result.Discrepant {
		zap.L().Warn("engine: reconciliation discrepancy",
			zap.String("property_id", d.PropertyID),
			zap.String("period", d.Period),
			zap.Float64("computed", d.Computed),
			zap.Float64("reported", d.Reported),
			zap.Float64("abs_diff", d.AbsDiff),
		)
	}
	if result.RecordCount > 0 {
		manualRate := float64(len(result.Buckets[model.TierManual])) / float64(result.RecordCount)
		if manualRate > 0.25 {
			zap.L().Warn("engine: high manual-tier rate",
				zap.Float64("manual_rate", manualRate),
				zap.Int("manual_records", len(result.Buckets[model.TierManual])),
			)
		}
	}
}

func (e *Engine) setStatus(ctx context.Context, runID string, status model.RunStatus) {
	if e.store == nil || runID == "" {
		return
	}
	if err := e.store.UpdateRunStatus(ctx, runID, status); err != nil {
		zap.L().Warn("engine: failed to update run status", zap.Error(err))
	}
}
