// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/metrics"
	"github.com/tomtom215/chatstats/internal/models"
)

// ErrGranularityMismatch is returned when a bucket's granularity differs from
// the statistic's.
var ErrGranularityMismatch = errors.New("bucket granularity does not match statistic")

// ValueFunctionError wraps a failure of a statistic's value function. The
// bucket is left unprocessed and is retried on the next run.
type ValueFunctionError struct {
	Statistic string
	Bucket    interval.TimeInterval
	Err       error
}

func (e *ValueFunctionError) Error() string {
	return fmt.Sprintf("value function %s for %s: %v", e.Statistic, e.Bucket, e.Err)
}

func (e *ValueFunctionError) Unwrap() error {
	return e.Err
}

// Store is the count storage the processor writes through.
type Store interface {
	// HasBucket reports whether any row exists for the bucket.
	HasBucket(ctx context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) (bool, error)

	// ExistingEntityIDs returns the entity ids that already have a row for the bucket.
	ExistingEntityIDs(ctx context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) (map[string]struct{}, error)

	// InsertCounts appends rows to the level's table. A uniqueness violation
	// must be reported as models.ErrDuplicateBucketWrite.
	InsertCounts(ctx context.Context, level models.EntityLevel, rows []models.CountRow) error
}

// Notifier receives an event after each written bucket.
type Notifier interface {
	BucketWritten(ctx context.Context, event models.BucketEvent) error
}

// ExistenceMode selects how the processor decides a bucket is already done.
type ExistenceMode string

const (
	// ExistenceBucket skips a bucket when any row exists for it. One query per
	// bucket, but a partially committed batch is never completed.
	ExistenceBucket ExistenceMode = "bucket"

	// ExistenceEntity always computes the bucket and inserts rows only for
	// entities that have none yet. Repairs partial batches at the cost of
	// running every value function on every pass.
	ExistenceEntity ExistenceMode = "entity"
)

// ParseExistenceMode parses a config value. Empty means ExistenceBucket.
func ParseExistenceMode(s string) (ExistenceMode, error) {
	switch ExistenceMode(s) {
	case "", ExistenceBucket:
		return ExistenceBucket, nil
	case ExistenceEntity:
		return ExistenceEntity, nil
	default:
		return "", fmt.Errorf("unknown existence mode %q", s)
	}
}

// Outcome describes what Process did with a bucket.
type Outcome string

const (
	OutcomeWritten   Outcome = "written"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeEmpty means no valid rows survived filtering. Nothing is stored,
	// so Process computes the bucket again whenever it is asked to. The
	// runner still marks it done, so only a backfill over it revisits it.
	OutcomeEmpty Outcome = "empty"
)

// Result is the outcome of processing one bucket.
type Result struct {
	Outcome  Outcome
	Rows     int
	Filtered int
}

// Processor runs the existence check, compute, filter and persist steps for
// one bucket at a time.
type Processor struct {
	store    Store
	mode     ExistenceMode
	notifier Notifier
	now      func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithExistenceMode sets the existence check mode.
func WithExistenceMode(mode ExistenceMode) ProcessorOption {
	return func(p *Processor) {
		p.mode = mode
	}
}

// WithNotifier sets the notifier called after each written bucket.
func WithNotifier(n Notifier) ProcessorOption {
	return func(p *Processor) {
		p.notifier = n
	}
}

// NewProcessor creates a processor writing through store.
func NewProcessor(store Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store: store,
		mode:  ExistenceBucket,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the configured existence mode.
func (p *Processor) Mode() ExistenceMode {
	return p.mode
}

// Process computes and persists one bucket of stat unless it already exists.
// Only rows whose entity is in valid are persisted.
func (p *Processor) Process(ctx context.Context, stat *Statistic, bucket interval.TimeInterval, valid ValidSet) (Result, error) {
	if stat.Granularity != bucket.Granularity {
		return Result{}, fmt.Errorf("%w: %s got %s", ErrGranularityMismatch, stat.Key(), bucket.Granularity)
	}

	res, err := p.process(ctx, stat, bucket, valid)
	if err != nil {
		return res, err
	}
	metrics.RecordBucket(stat.Name, string(stat.Level), string(stat.Granularity), string(res.Outcome))
	return res, nil
}

func (p *Processor) process(ctx context.Context, stat *Statistic, bucket interval.TimeInterval, valid ValidSet) (Result, error) {
	var existing map[string]struct{}
	switch p.mode {
	case ExistenceEntity:
		ids, err := p.store.ExistingEntityIDs(ctx, stat.Level, stat.Name, bucket.End, bucket.Granularity)
		if err != nil {
			return Result{}, fmt.Errorf("check existing entities for %s: %w", stat.Key(), err)
		}
		existing = ids
	default:
		exists, err := p.store.HasBucket(ctx, stat.Level, stat.Name, bucket.End, bucket.Granularity)
		if err != nil {
			return Result{}, fmt.Errorf("check bucket for %s: %w", stat.Key(), err)
		}
		if exists {
			return Result{Outcome: OutcomeSkipped}, nil
		}
	}

	start := time.Now()
	values, err := stat.Value(ctx, bucket)
	metrics.RecordValueFunction(stat.Name, string(stat.Level), string(stat.Granularity), time.Since(start))
	if err != nil {
		return Result{}, &ValueFunctionError{Statistic: stat.Key(), Bucket: bucket, Err: err}
	}

	rows, filtered := buildRows(stat, bucket, values, valid, existing)
	if filtered > 0 {
		metrics.RecordRowsFiltered(stat.Name, string(stat.Level), filtered)
	}

	if len(rows) == 0 {
		if len(existing) > 0 {
			return Result{Outcome: OutcomeSkipped, Filtered: filtered}, nil
		}
		return Result{Outcome: OutcomeEmpty, Filtered: filtered}, nil
	}

	// Each insert chunk commits on its own. If a later chunk fails, earlier
	// chunks stay and ExistenceBucket will treat the bucket as complete on the
	// next run. Repair with DeleteBucket or run with ExistenceEntity.
	if err := p.store.InsertCounts(ctx, stat.Level, rows); err != nil {
		if errors.Is(err, models.ErrDuplicateBucketWrite) {
			logging.Ctx(ctx).Debug().
				Str("statistic", stat.Key()).
				Time("end_time", bucket.End).
				Msg("Bucket already written by another run")
			return Result{Outcome: OutcomeDuplicate, Filtered: filtered}, nil
		}
		return Result{}, fmt.Errorf("insert %d rows for %s: %w", len(rows), stat.Key(), err)
	}
	metrics.RecordRowsWritten(string(stat.Level), len(rows))

	p.notify(ctx, stat, bucket, rows)
	return Result{Outcome: OutcomeWritten, Rows: len(rows), Filtered: filtered}, nil
}

// buildRows merges duplicate entity ids by summing, drops invalid and already
// present entities, and tags the survivors with the bucket. Output order
// follows the first appearance of each entity in values.
func buildRows(stat *Statistic, bucket interval.TimeInterval, values []models.EntityValue, valid ValidSet, existing map[string]struct{}) ([]models.CountRow, int) {
	sums := make(map[string]int64, len(values))
	order := make([]string, 0, len(values))
	for _, v := range values {
		if _, seen := sums[v.EntityID]; !seen {
			order = append(order, v.EntityID)
		}
		sums[v.EntityID] += v.Value
	}

	rows := make([]models.CountRow, 0, len(order))
	filtered := 0
	for _, id := range order {
		if !valid.Contains(id) {
			filtered++
			continue
		}
		if _, ok := existing[id]; ok {
			continue
		}
		rows = append(rows, models.CountRow{
			EntityID:    id,
			Statistic:   stat.Name,
			EndTime:     bucket.End,
			Granularity: bucket.Granularity,
			Value:       sums[id],
		})
	}
	return rows, filtered
}

func (p *Processor) notify(ctx context.Context, stat *Statistic, bucket interval.TimeInterval, rows []models.CountRow) {
	if p.notifier == nil {
		return
	}
	var total int64
	for _, r := range rows {
		total += r.Value
	}
	event := models.BucketEvent{
		EventID:     uuid.New().String(),
		Statistic:   stat.Name,
		Level:       stat.Level,
		Granularity: bucket.Granularity,
		EndTime:     bucket.End,
		Rows:        len(rows),
		Total:       total,
		WrittenAt:   p.now().UTC(),
	}
	if err := p.notifier.BucketWritten(ctx, event); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("statistic", stat.Key()).
			Time("end_time", bucket.End).
			Msg("Failed to publish bucket event")
	}
}
