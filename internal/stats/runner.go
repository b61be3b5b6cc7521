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

	"golang.org/x/time/rate"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/metrics"
	"github.com/tomtom215/chatstats/internal/models"
)

// ErrRunInProgress is returned when a run is requested while another is active
// on the same Runner.
var ErrRunInProgress = errors.New("rollup run already in progress")

// EntitySource supplies the currently valid entity ids per level.
type EntitySource interface {
	ValidEntities(ctx context.Context, level models.EntityLevel) (ValidSet, error)
}

// FillStateStore persists the per-statistic resume point.
type FillStateStore interface {
	GetFillState(ctx context.Context, statisticKey string) (models.FillState, bool, error)
	SetFillState(ctx context.Context, state models.FillState) error
}

// RunnerConfig controls scheduled runs.
type RunnerConfig struct {
	// InitialLookback is how far back a statistic with no fill state starts.
	InitialLookback time.Duration

	// BucketsPerSecond throttles bucket processing. Zero disables throttling.
	BucketsPerSecond float64
}

// RunReport summarizes one run.
type RunReport struct {
	Jobs       int
	Written    int
	Skipped    int
	Duplicates int
	Empty      int
	Rows       int
	Filtered   int
	Duration   time.Duration
}

func (r *RunReport) add(res Result) {
	switch res.Outcome {
	case OutcomeWritten:
		r.Written++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeDuplicate:
		r.Duplicates++
	case OutcomeEmpty:
		r.Empty++
	}
	r.Rows += res.Rows
	r.Filtered += res.Filtered
}

// Runner drives the processor over planned jobs.
type Runner struct {
	registry  *Registry
	processor *Processor
	entities  EntitySource
	fills     FillStateStore
	cfg       RunnerConfig
	limiter   *rate.Limiter
	running   chan struct{}
}

// NewRunner creates a runner.
func NewRunner(registry *Registry, processor *Processor, entities EntitySource, fills FillStateStore, cfg RunnerConfig) *Runner {
	r := &Runner{
		registry:  registry,
		processor: processor,
		entities:  entities,
		fills:     fills,
		cfg:       cfg,
		running:   make(chan struct{}, 1),
	}
	if cfg.BucketsPerSecond > 0 {
		burst := int(cfg.BucketsPerSecond)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.BucketsPerSecond), burst)
	}
	return r
}

// RunUntil catches every registered statistic up to now. Each statistic
// resumes after its last completed bucket, retries a bucket that was started
// but not finished, and otherwise starts InitialLookback before now.
func (r *Runner) RunUntil(ctx context.Context, now time.Time) (RunReport, error) {
	all := r.registry.All()
	spans := make([]Span, 0, len(all))
	for _, s := range all {
		first, err := r.resumePoint(ctx, s, now)
		if err != nil {
			return RunReport{}, err
		}
		spans = append(spans, Span{Statistic: s, First: first, Last: now})
	}

	jobs, err := PlanSpans(spans)
	if err != nil {
		return RunReport{}, err
	}
	return r.execute(ctx, jobs, now)
}

// Backfill processes [first, last] for the selected statistics and their
// dependencies. Already written buckets are skipped as usual.
func (r *Runner) Backfill(ctx context.Context, selectors []string, first, last time.Time) (RunReport, error) {
	selected, err := r.registry.Select(selectors...)
	if err != nil {
		return RunReport{}, err
	}
	jobs, err := Plan(selected, first, last)
	if err != nil {
		return RunReport{}, err
	}
	return r.execute(ctx, jobs, last)
}

func (r *Runner) resumePoint(ctx context.Context, s *Statistic, now time.Time) (time.Time, error) {
	state, ok, err := r.fills.GetFillState(ctx, s.Key())
	if err != nil {
		return time.Time{}, fmt.Errorf("get fill state for %s: %w", s.Key(), err)
	}
	if !ok {
		return now.Add(-r.cfg.InitialLookback), nil
	}
	if state.Status == models.FillStarted {
		return state.EndTime, nil
	}
	// BucketRange includes ends >= first, so any instant after the last
	// completed end starts at the next bucket.
	return state.EndTime.Add(time.Second), nil
}

func (r *Runner) execute(ctx context.Context, jobs []Job, now time.Time) (report RunReport, err error) {
	select {
	case r.running <- struct{}{}:
	default:
		return RunReport{}, ErrRunInProgress
	}
	defer func() { <-r.running }()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	start := time.Now()
	report.Jobs = len(jobs)

	defer func() {
		report.Duration = time.Since(start)
		metrics.RecordRun(report.Duration, err)
	}()

	log.Info().Int("jobs", len(jobs)).Msg("Rollup run started")

	// Valid sets live for this run only.
	validSets := make(map[models.EntityLevel]ValidSet)
	fillEnds := make(map[string]time.Time)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return report, err
			}
		}

		stat, bucket := job.Statistic, job.Bucket
		valid, ok := validSets[stat.Level]
		if !ok {
			valid, err = r.entities.ValidEntities(ctx, stat.Level)
			if err != nil {
				return report, fmt.Errorf("load valid %s entities: %w", stat.Level, err)
			}
			validSets[stat.Level] = valid
		}

		if err := r.markFill(ctx, stat.Key(), bucket, models.FillStarted, fillEnds); err != nil {
			return report, err
		}

		res, err := r.processor.Process(ctx, stat, bucket, valid)
		if err != nil {
			log.Error().Err(err).
				Str("statistic", stat.Key()).
				Time("end_time", bucket.End).
				Msg("Bucket processing failed, aborting run")
			return report, fmt.Errorf("process %s at %s: %w", stat.Key(), bucket.End.Format(time.RFC3339), err)
		}
		report.add(res)

		if err := r.markFill(ctx, stat.Key(), bucket, models.FillDone, fillEnds); err != nil {
			return report, err
		}
		metrics.UpdateFillLag(stat.Key(), bucket.End, now)

		log.Debug().
			Str("statistic", stat.Key()).
			Time("end_time", bucket.End).
			Str("outcome", string(res.Outcome)).
			Int("rows", res.Rows).
			Msg("Bucket processed")
	}

	log.Info().
		Int("written", report.Written).
		Int("skipped", report.Skipped).
		Int("duplicates", report.Duplicates).
		Int("empty", report.Empty).
		Int("rows", report.Rows).
		Msg("Rollup run finished")
	return report, nil
}

// markFill records progress for key, never moving the stored end backwards.
func (r *Runner) markFill(ctx context.Context, key string, bucket interval.TimeInterval, status models.FillStatus, known map[string]time.Time) error {
	last, ok := known[key]
	if !ok {
		state, found, err := r.fills.GetFillState(ctx, key)
		if err != nil {
			return fmt.Errorf("get fill state for %s: %w", key, err)
		}
		if found {
			last = state.EndTime
		}
		known[key] = last
	}
	if bucket.End.Before(last) {
		return nil
	}

	err := r.fills.SetFillState(ctx, models.FillState{
		StatisticKey: key,
		EndTime:      bucket.End,
		Status:       status,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set fill state for %s: %w", key, err)
	}
	known[key] = bucket.End
	return nil
}
