// Package scheduler runs a benchmark round: every candidate is probed a fixed
// number of times on a bounded worker pool, under one round deadline.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/probe"
	"github.com/tbckr/dnsbench/internal/stats"
	"github.com/tbckr/dnsbench/internal/worker"
)

// errRoundDeadline marks attempts that never completed inside the round.
var errRoundDeadline = errors.New("round deadline exceeded before probe completed")

// Scheduler dispatches probes and collects per-candidate statistics.
type Scheduler struct {
	prober probe.Prober
	logger *slog.Logger
}

// New returns a Scheduler that uses prober for every attempt.
func New(prober probe.Prober, logger *slog.Logger) *Scheduler {
	return &Scheduler{prober: prober, logger: logger}
}

// job is one attempt against the candidate at index.
type job struct {
	index   int
	attempt int
}

type jobResult struct {
	job
	result probe.Result
}

// RunRound probes every candidate cfg.ProbesPerCandidate times and returns one
// Stats per candidate, positionally: out[i] belongs to candidates[i].
//
// Candidates that never answer are still returned, with zero successes.
// RunRound returns by the round deadline (plus a short join grace) no matter
// how the network behaves; attempts still outstanding then count as Timeout.
func (s *Scheduler) RunRound(ctx context.Context, candidates []candidate.Candidate, cfg Config) ([]stats.Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	roundCtx, cancel := context.WithTimeout(ctx, cfg.Deadline())
	defer cancel()
	deadline, _ := roundCtx.Deadline()

	// Attempt-major order: every candidate gets its first attempt before any
	// gets a second, so deadline pressure is spread evenly.
	jobs := make([]job, 0, len(candidates)*cfg.ProbesPerCandidate)
	for attempt := range cfg.ProbesPerCandidate {
		for i := range candidates {
			jobs = append(jobs, job{index: i, attempt: attempt})
		}
	}

	s.logger.Debug("round started",
		"candidates", len(candidates),
		"probes_per_candidate", cfg.ProbesPerCandidate,
		"timeout", cfg.Timeout,
		"max_in_flight", cfg.MaxInFlight,
		"deadline", cfg.Deadline(),
	)

	pool := worker.NewPool[job, jobResult](cfg.MaxInFlight, s.logger)
	results := pool.Process(roundCtx, jobs, func(ctx context.Context, j job) jobResult {
		return jobResult{job: j, result: s.attempt(ctx, candidates[j.index], j.attempt, cfg)}
	})

	accs := make([]*stats.Accumulator, len(candidates))
	done := make([][]bool, len(candidates))
	for i, c := range candidates {
		accs[i] = stats.NewAccumulator(c)
		done[i] = make([]bool, cfg.ProbesPerCandidate)
	}

	barrier := time.NewTimer(time.Until(deadline) + joinGrace)
	defer barrier.Stop()

collect:
	for {
		select {
		case jr, ok := <-results:
			if !ok {
				break collect
			}
			if done[jr.index][jr.attempt] {
				continue
			}
			done[jr.index][jr.attempt] = true
			accs[jr.index].Add(jr.result)
			s.logger.Debug("probe finished",
				"resolver", candidates[jr.index].Label,
				"address", candidates[jr.index].Address.String(),
				"attempt", jr.attempt,
				"outcome", jr.result.Outcome.String(),
				"elapsed", jr.result.Elapsed,
			)
		case <-barrier.C:
			s.logger.Warn("round deadline exceeded, recording outstanding probes as timeouts",
				"deadline", cfg.Deadline())
			break collect
		}
	}

	out := make([]stats.Stats, len(candidates))
	for i, c := range candidates {
		for attempt, seen := range done[i] {
			if !seen {
				accs[i].Add(probe.Result{Candidate: c, Attempt: attempt, Outcome: probe.Timeout, Err: errRoundDeadline})
			}
		}
		out[i] = accs[i].Finalize()
	}
	return out, nil
}

// attempt runs one probe, or records a Timeout without sending when the round
// is already over or pacing could not get a slot in time.
func (s *Scheduler) attempt(ctx context.Context, c candidate.Candidate, attempt int, cfg Config) probe.Result {
	if err := cfg.Limiter.Wait(ctx); err != nil {
		return probe.Result{Candidate: c, Attempt: attempt, Outcome: probe.Timeout, Err: err}
	}
	if ctx.Err() != nil {
		return probe.Result{Candidate: c, Attempt: attempt, Outcome: probe.Timeout, Err: errRoundDeadline}
	}
	r := s.prober.Probe(ctx, c, attempt, cfg.Timeout)
	r.Candidate = c
	r.Attempt = attempt
	return r
}
