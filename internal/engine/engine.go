// Package engine runs one category evaluation: every prompt record of the
// store is matched against its detection record, scored, and folded into an
// accuracy report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mwiater/compbench/internal/aggregate"
	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
	"github.com/mwiater/compbench/internal/evaluator"
	"github.com/mwiater/compbench/internal/logging"
	"github.com/mwiater/compbench/internal/matcher"
)

// UndetectedReason is the verdict reason of a record without detector output.
const UndetectedReason = "no detection output for prompt"

// Inputs are the loaded collaborators of a run.
type Inputs struct {
	Store      *dataset.Store
	Detections *detection.Table
	Evaluator  evaluator.Evaluator
	Matcher    *matcher.Matcher
}

// Options tune a run.
type Options struct {
	// Workers bounds concurrent evaluations; values below 1 mean runtime.NumCPU().
	Workers int
	// Progress is called after each record with the number done so far.
	Progress func(done, total int)
	// OnVerdict receives every verdict as it is produced. It may be called
	// from several goroutines at once.
	OnVerdict func(evaluator.Verdict)
	// KeepVerdicts copies the verdict list into the report.
	KeepVerdicts bool
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// Run evaluates every record of in.Store. A missing detection record scores
// the prompt as incorrect. Cancelling ctx stops scheduling new records and
// returns the context error.
func Run(ctx context.Context, in Inputs, opts Options) (aggregate.AccuracyReport, error) {
	if in.Store == nil {
		return aggregate.AccuracyReport{}, errors.New("engine: no prompt store")
	}
	if in.Evaluator == nil {
		return aggregate.AccuracyReport{}, errors.New("engine: no evaluator")
	}
	if in.Evaluator.Category() != in.Store.Category() {
		return aggregate.AccuracyReport{}, fmt.Errorf("engine: %s evaluator cannot score %s records", in.Evaluator.Category(), in.Store.Category())
	}
	table := in.Detections
	if table == nil {
		table = detection.NewTable()
	}
	m := in.Matcher
	if m == nil {
		m = matcher.New()
	}

	records := in.Store.All()
	total := len(records)
	agg := aggregate.New(in.Store.Category())
	var done atomic.Int64

	logging.LogEvent("evaluating %d %s records with %d workers", total, in.Store.Category(), opts.workers())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for _, rec := range records {
		if gctx.Err() != nil {
			break
		}
		rec := rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v := score(rec, table, m, in.Evaluator)
			agg.Add(v)
			logging.LogVerdict(string(v.Category), v.Index, v.Correct, v.Reason)
			if opts.OnVerdict != nil {
				opts.OnVerdict(v)
			}
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return aggregate.AccuracyReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return aggregate.AccuracyReport{}, err
	}

	report := agg.Finalize()
	report.RunID = uuid.NewString()
	stats := in.Store.Stats()
	report.DuplicatePrompts = stats.DuplicateCount
	report.IndexGaps = stats.Gaps
	report.IndexGapCount = stats.GapCount
	orphans := table.Orphans(in.Store.Has)
	report.OrphanDetections = len(orphans)
	for _, id := range orphans {
		logging.LogWarn("detections: %s has no matching %s prompt", id, in.Store.Category())
	}
	if !opts.KeepVerdicts {
		report.Verdicts = nil
	}

	logging.LogEvent("%s accuracy %.4f (%d/%d), undetected=%d orphans=%d", report.Category, report.Accuracy, report.CorrectCount, report.TotalRecordsConsidered, report.Undetected, report.OrphanDetections)
	return report, nil
}

// score evaluates one record. A record absent from the table is scored on an
// empty detection list so the evaluator still fills its per-record counts.
func score(rec dataset.PromptRecord, table *detection.Table, m *matcher.Matcher, e evaluator.Evaluator) evaluator.Verdict {
	dr, found := table.Lookup(rec.Index)
	v := e.Evaluate(rec, m.Match(rec, dr.Detections))
	if !found {
		v.Correct = false
		v.Undetected = true
		v.Reason = UndetectedReason
	}
	return v
}
