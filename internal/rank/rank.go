// Package rank orders resolvers by reliability, then latency, with
// deterministic tie-breaking.
package rank

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"time"

	"github.com/tbckr/dnsbench/internal/stats"
)

const (
	// DefaultEpsilon is the latency window inside which medians count as equal.
	DefaultEpsilon = 500 * time.Microsecond

	// failurePenalty weights failure rate in Score so that any rate difference
	// outweighs any plausible latency difference (in milliseconds).
	failurePenalty = 1e6
)

// Options tunes ranking.
type Options struct {
	// Epsilon is the median-latency tie window. Zero or negative groups only
	// equal medians.
	Epsilon time.Duration
}

// DefaultOptions returns Options with DefaultEpsilon.
func DefaultOptions() Options {
	return Options{Epsilon: DefaultEpsilon}
}

// Ranked is a candidate's stats with its place in the order. Position is
// 1-based; lower Score is better and is +Inf without any success.
type Ranked struct {
	Position int         `json:"position"`
	Score    float64     `json:"score"`
	Stats    stats.Stats `json:"stats"`
}

// MarshalJSON encodes an infinite score as null.
func (r Ranked) MarshalJSON() ([]byte, error) {
	type plain Ranked
	var score *float64
	if !math.IsInf(r.Score, 0) && !math.IsNaN(r.Score) {
		s := r.Score
		score = &s
	}
	return json.Marshal(struct {
		plain
		Score *float64 `json:"score"`
	}{plain: plain(r), Score: score})
}

// Rank orders all, where all[i] is the i-th candidate in list order.
//
// Resolvers with at least one success come first, by success rate (higher
// first), then by latency group (faster first), then the currently configured
// resolver, then list order. Resolvers without any success follow in list
// order. The result is a total order and Rank is a pure function of its input.
//
// Latency groups are formed per success rate by walking medians in ascending
// order: a group starts at its fastest median and takes every median at most
// opts.Epsilon above it. Any two members of a group are within Epsilon of each
// other, and group membership does not depend on input order.
func Rank(all []stats.Stats, opts Options) []Ranked {
	order := make([]int, len(all))
	for i := range order {
		order[i] = i
	}

	slices.SortFunc(order, func(a, b int) int {
		if c := compareRate(all[a], all[b]); c != 0 {
			return c
		}
		if c := cmp.Compare(all[a].Median, all[b].Median); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	group := latencyGroups(all, order, max(opts.Epsilon, 0))

	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(group[a], group[b]); c != 0 {
			return c
		}
		if ca, cb := all[a].Candidate.IsCurrent(), all[b].Candidate.IsCurrent(); ca != cb && group[a] != down {
			if ca {
				return -1
			}
			return 1
		}
		return cmp.Compare(a, b)
	})

	out := make([]Ranked, len(order))
	for pos, i := range order {
		out[pos] = Ranked{Position: pos + 1, Score: Score(all[i]), Stats: all[i]}
	}
	return out
}

// down is the group of resolvers without any success; it sorts last.
const down = math.MaxInt

// latencyGroups numbers the groups of all, visited in sorted order. Groups
// increase with rank, so comparing numbers compares success rate and latency.
func latencyGroups(all []stats.Stats, sorted []int, eps time.Duration) []int {
	group := make([]int, len(all))
	g, anchor := -1, -1
	for _, i := range sorted {
		s := all[i]
		if s.Successes == 0 {
			group[i] = down
			continue
		}
		if anchor < 0 || compareRate(all[anchor], s) != 0 || s.Median-all[anchor].Median > eps {
			g++
			anchor = i
		}
		group[i] = g
	}
	return group
}

// compareRate puts zero-success resolvers last and otherwise orders by success
// rate, higher first, compared exactly as a/b vs c/d via cross products.
func compareRate(a, b stats.Stats) int {
	aDown, bDown := a.Successes == 0, b.Successes == 0
	switch {
	case aDown && bDown:
		return 0
	case aDown:
		return 1
	case bDown:
		return -1
	}
	return cmp.Compare(b.Successes*a.Attempts, a.Successes*b.Attempts)
}

// Score is the lower-is-better summary of s: failure rate dominates, median
// latency in milliseconds breaks the rest.
func Score(s stats.Stats) float64 {
	if s.Successes == 0 {
		return math.Inf(1)
	}
	return s.FailureRate()*failurePenalty + float64(s.Median)/float64(time.Millisecond)
}
