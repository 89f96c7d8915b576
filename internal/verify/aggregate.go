package verify

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

// FailedRun is the conservative stand-in for a citation whose verification
// did not complete: flagged for human review, never dropped
func FailedRun(req model.VerifyRequest, err error, now time.Time) model.VerificationRun {
	run := model.VerificationRun{
		ID:          uuid.NewString(),
		Citation:    req.Citation,
		Proposition: req.Proposition,
		MotionType:  req.MotionType,
		StartedAt:   now,
		CompletedAt: now,
		Error:       "verification failed",
	}
	if err != nil {
		run.Error = err.Error()
	}
	run.Signals = Signals(&run)
	run.Composite = Compose(&run, run.Signals, 1)
	metrics.Verifications.WithLabelValues(string(run.Composite.Status)).Inc()
	return run
}

// BuildReport keeps the batch results in feed order, replaces failed
// citations with FailedRun and summarizes the batch
func BuildReport(results []*worker.VerifyResult, motionType string, elapsed time.Duration, now time.Time) model.BatchReport {
	runs := make([]model.VerificationRun, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Error != nil || r.Run == nil {
			runs = append(runs, FailedRun(r.Request, r.Error, now))
			continue
		}
		runs = append(runs, *r.Run)
	}

	return model.BatchReport{
		GeneratedAt: now,
		MotionType:  motionType,
		Results:     runs,
		Summary:     Summarize(runs, elapsed),
	}
}

// Summarize computes run-level statistics
func Summarize(runs []model.VerificationRun, elapsed time.Duration) model.BatchSummary {
	s := model.BatchSummary{
		Total:    len(runs),
		ByStatus: make(map[model.Status]int),
		ByAction: make(map[model.Action]int),
		Duration: elapsed,
	}

	var confidence float64
	for _, run := range runs {
		s.ByStatus[run.Composite.Status]++
		s.ByAction[run.Composite.Action]++
		confidence += run.Composite.Confidence
		if run.Cached {
			s.CacheHits++
		}
		if run.Error != "" {
			s.Errors++
		}
		s.Usage.Add(run.Usage)
	}
	if len(runs) > 0 {
		s.AverageConfidence = confidence / float64(len(runs))
	}
	s.EstimatedCostUSD = s.Usage.CostUSD
	return s
}

// Verifiable reports whether at least one citation produced a run of its own
func Verifiable(report model.BatchReport) bool {
	return report.Summary.Total > report.Summary.Errors
}
