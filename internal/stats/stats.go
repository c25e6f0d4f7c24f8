// Package stats aggregates probe results into per-resolver statistics.
package stats

import (
	"slices"
	"time"

	mstats "github.com/montanaflynn/stats"

	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/probe"
)

// Stats is the finalized aggregate for one candidate. Latency fields are zero
// when there were no successes.
type Stats struct {
	Candidate     candidate.Candidate `json:"candidate"`
	Attempts      int                 `json:"attempts"`
	Successes     int                 `json:"successes"`
	Timeouts      int                 `json:"timeouts"`
	NetworkErrors int                 `json:"network_errors"`
	Malformed     int                 `json:"malformed"`
	Min           time.Duration       `json:"min_ns"`
	Median        time.Duration       `json:"median_ns"`
	Mean          time.Duration       `json:"mean_ns"`
	Max           time.Duration       `json:"max_ns"`
	Latencies     []time.Duration     `json:"latencies_ns,omitempty"`
	LastError     string              `json:"last_error,omitempty"`
}

// SuccessRate is successes over attempts, or 0 with no attempts.
func (s Stats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts)
}

// FailureRate is 1 - SuccessRate for candidates that were attempted.
func (s Stats) FailureRate() float64 {
	if s.Attempts == 0 {
		return 1
	}
	return 1 - s.SuccessRate()
}

// Accumulator collects results for exactly one candidate. It is not safe for
// concurrent use; the scheduler feeds it from a single collector goroutine.
type Accumulator struct {
	stats Stats
}

// NewAccumulator starts an empty aggregate for c.
func NewAccumulator(c candidate.Candidate) *Accumulator {
	return &Accumulator{stats: Stats{Candidate: c}}
}

// Add folds one result in. Counts and the latency set are order-independent.
func (a *Accumulator) Add(r probe.Result) {
	a.stats.Attempts++
	switch r.Outcome {
	case probe.Success:
		a.stats.Successes++
		a.stats.Latencies = append(a.stats.Latencies, r.Elapsed)
	case probe.Timeout:
		a.stats.Timeouts++
	case probe.NetworkError:
		a.stats.NetworkErrors++
	case probe.MalformedResponse:
		a.stats.Malformed++
	}
	if r.Err != nil {
		a.stats.LastError = r.Err.Error()
	}
}

// Finalize computes latency summaries and returns the aggregate. Latencies
// are returned sorted so the output does not depend on arrival order.
func (a *Accumulator) Finalize() Stats {
	s := a.stats
	s.Latencies = append([]time.Duration(nil), a.stats.Latencies...)
	if len(s.Latencies) == 0 {
		return s
	}

	slices.Sort(s.Latencies)
	data := make(mstats.Float64Data, len(s.Latencies))
	for i, d := range s.Latencies {
		data[i] = float64(d)
	}

	s.Min = summarize(mstats.Min, data)
	s.Max = summarize(mstats.Max, data)
	s.Median = summarize(mstats.Median, data)
	s.Mean = summarize(mstats.Mean, data)
	return s
}

// summarize applies fn to non-empty data; errors only occur on empty input.
func summarize(fn func(mstats.Float64Data) (float64, error), data mstats.Float64Data) time.Duration {
	v, err := fn(data)
	if err != nil {
		return 0
	}
	return time.Duration(v)
}
