// Package bench runs one benchmark: a scheduled round of probes, ranked into
// a report.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/probe"
	"github.com/tbckr/dnsbench/internal/rank"
	"github.com/tbckr/dnsbench/internal/report"
	"github.com/tbckr/dnsbench/internal/scheduler"
)

// Options tunes ranking and labels the report.
type Options struct {
	Rank rank.Options
	// Query describes the probe query in the report, e.g. "example.com. A".
	Query string
}

// Service benchmarks candidate sets.
type Service struct {
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

// NewService creates a Service that probes with prober.
func NewService(prober probe.Prober, logger *slog.Logger, opts Options) *Service {
	return &Service{
		scheduler: scheduler.New(prober, logger),
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Run executes exactly one round over set and ranks the outcome. Failing
// resolvers are not retried beyond the per-candidate attempt budget.
//
// A round in which every candidate failed still yields a complete report;
// check report.Err. The returned error is non-nil only for unusable input.
func (s *Service) Run(ctx context.Context, set candidate.Set, cfg scheduler.Config) (report.Report, error) {
	candidates := set.Candidates()
	if len(candidates) == 0 {
		return report.Report{}, fmt.Errorf("%w: no candidates to benchmark", apperr.ErrInvalidInput)
	}

	start := s.now()
	all, err := s.scheduler.RunRound(ctx, candidates, cfg)
	if err != nil {
		return report.Report{}, err
	}
	rep := report.New(s.opts.Query, start, s.now().Sub(start), rank.Rank(all, s.opts.Rank))

	winner, _ := rep.Winner()
	if rep.AllFailed() {
		s.logger.Warn("no resolver answered any probe",
			"candidates", len(candidates), "elapsed", rep.Elapsed)
		return rep, nil
	}
	s.logger.Info("benchmark finished",
		"winner", winner.Stats.Candidate.Label,
		"address", winner.Stats.Candidate.Address.String(),
		"median", winner.Stats.Median,
		"success_rate", winner.Stats.SuccessRate(),
		"candidates", len(candidates),
		"elapsed", rep.Elapsed,
	)
	return rep, nil
}
