package rank_test

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/rank"
	"github.com/tbckr/dnsbench/internal/stats"
)

func cand(label string, last byte, src candidate.Source) candidate.Candidate {
	return candidate.New(label, netip.AddrFrom4([4]byte{192, 0, 2, last}), src)
}

func st(c candidate.Candidate, attempts, successes int, median time.Duration) stats.Stats {
	s := stats.Stats{Candidate: c, Attempts: attempts, Successes: successes, Timeouts: attempts - successes}
	if successes > 0 {
		s.Median, s.Min, s.Mean, s.Max = median, median, median, median
	}
	return s
}

func labels(ranked []rank.Ranked) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Stats.Candidate.Label
	}
	return out
}

func TestRank_ReliabilityBeatsSpeed(t *testing.T) {
	in := []stats.Stats{
		st(cand("R1", 1, candidate.SourceBuiltin), 3, 3, 10*time.Millisecond),
		st(cand("R2", 2, candidate.SourceBuiltin), 3, 0, 0),
		st(cand("R3", 3, candidate.SourceBuiltin), 3, 2, 50*time.Millisecond),
	}
	got := rank.Rank(in, rank.DefaultOptions())
	assert.Equal(t, []string{"R1", "R3", "R2"}, labels(got))
	assert.Equal(t, 1, got[0].Position)
	assert.Equal(t, 3, got[2].Position)
	assert.True(t, math.IsInf(got[2].Score, 1))
}

func TestRank_FastButFlakyLoses(t *testing.T) {
	in := []stats.Stats{
		st(cand("fast-flaky", 1, candidate.SourceBuiltin), 4, 3, 5*time.Millisecond),
		st(cand("slow-steady", 2, candidate.SourceBuiltin), 4, 4, 80*time.Millisecond),
	}
	assert.Equal(t, []string{"slow-steady", "fast-flaky"}, labels(rank.Rank(in, rank.DefaultOptions())))
}

func TestRank_AllDownKeepsListOrder(t *testing.T) {
	in := []stats.Stats{
		st(cand("C", 3, candidate.SourceBuiltin), 3, 0, 0),
		st(cand("A", 1, candidate.SourceCurrent), 3, 0, 0),
		st(cand("B", 2, candidate.SourceBuiltin), 3, 0, 0),
	}
	assert.Equal(t, []string{"C", "A", "B"}, labels(rank.Rank(in, rank.DefaultOptions())))
}

func TestRank_CurrentWinsExactTie(t *testing.T) {
	in := []stats.Stats{
		st(cand("other", 1, candidate.SourceBuiltin), 3, 3, 20*time.Millisecond),
		st(cand("current", 2, candidate.SourceCurrent), 3, 3, 20*time.Millisecond),
	}
	assert.Equal(t, []string{"current", "other"}, labels(rank.Rank(in, rank.DefaultOptions())))
}

func TestRank_CurrentWinsWithinEpsilon(t *testing.T) {
	in := []stats.Stats{
		st(cand("other", 1, candidate.SourceBuiltin), 3, 3, 20*time.Millisecond+100*time.Microsecond),
		st(cand("current", 2, candidate.SourceCurrent), 3, 3, 20*time.Millisecond+300*time.Microsecond),
	}
	assert.Equal(t, []string{"current", "other"}, labels(rank.Rank(in, rank.DefaultOptions())))

	// With exact comparison the faster one wins.
	assert.Equal(t, []string{"other", "current"}, labels(rank.Rank(in, rank.Options{})))
}

func TestRank_CurrentWinsAcrossMillisecondEdge(t *testing.T) {
	// 2µs apart but on either side of a 500µs multiple.
	in := []stats.Stats{
		st(cand("other", 1, candidate.SourceBuiltin), 3, 3, 10*time.Millisecond+499*time.Microsecond),
		st(cand("current", 2, candidate.SourceCurrent), 3, 3, 10*time.Millisecond+501*time.Microsecond),
	}
	assert.Equal(t, []string{"current", "other"}, labels(rank.Rank(in, rank.DefaultOptions())))
}

func TestRank_LatencyGroupsAnchorAtFastest(t *testing.T) {
	ms := func(f float64) time.Duration { return time.Duration(f * float64(time.Millisecond)) }

	tests := []struct {
		name    string
		current time.Duration
		want    []string
	}{
		// A and B are within epsilon of each other, as are B and C, but
		// C is 0.8ms behind A: C must not overtake A.
		{"beyond window", ms(10.8), []string{"A", "B", "C"}},
		{"window inclusive", ms(10.5), []string{"C", "A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []stats.Stats{
				st(cand("A", 1, candidate.SourceBuiltin), 3, 3, ms(10.0)),
				st(cand("B", 2, candidate.SourceBuiltin), 3, 3, ms(10.4)),
				st(cand("C", 3, candidate.SourceCurrent), 3, 3, tt.current),
			}
			assert.Equal(t, tt.want, labels(rank.Rank(in, rank.DefaultOptions())))
		})
	}
}

func TestRank_GroupsIgnoreInputOrder(t *testing.T) {
	a := st(cand("A", 1, candidate.SourceBuiltin), 3, 3, 20*time.Millisecond)
	b := st(cand("B", 2, candidate.SourceCurrent), 3, 3, 20*time.Millisecond+400*time.Microsecond)
	c := st(cand("C", 3, candidate.SourceBuiltin), 3, 3, 20*time.Millisecond+800*time.Microsecond)

	for _, in := range [][]stats.Stats{{a, b, c}, {c, b, a}, {b, c, a}} {
		got := labels(rank.Rank(in, rank.DefaultOptions()))
		assert.Equal(t, "B", got[0], "current shares the fastest group")
		assert.Equal(t, "C", got[2], "C is outside the fastest group")
	}
}

func TestRank_TieFallsBackToListOrder(t *testing.T) {
	in := []stats.Stats{
		st(cand("first", 1, candidate.SourceBuiltin), 3, 3, 20*time.Millisecond),
		st(cand("second", 2, candidate.SourceBuiltin), 3, 3, 20*time.Millisecond),
	}
	assert.Equal(t, []string{"first", "second"}, labels(rank.Rank(in, rank.DefaultOptions())))
}

func TestRank_CurrentDoesNotBeatFaster(t *testing.T) {
	in := []stats.Stats{
		st(cand("current", 1, candidate.SourceCurrent), 3, 3, 40*time.Millisecond),
		st(cand("faster", 2, candidate.SourceBuiltin), 3, 3, 10*time.Millisecond),
	}
	assert.Equal(t, []string{"faster", "current"}, labels(rank.Rank(in, rank.DefaultOptions())))
}

func TestRank_SuccessRateComparedExactly(t *testing.T) {
	// 2/3 and 4/6 are the same rate; latency decides.
	in := []stats.Stats{
		st(cand("A", 1, candidate.SourceBuiltin), 3, 2, 30*time.Millisecond),
		st(cand("B", 2, candidate.SourceBuiltin), 6, 4, 10*time.Millisecond),
	}
	assert.Equal(t, []string{"B", "A"}, labels(rank.Rank(in, rank.DefaultOptions())))
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, rank.Rank(nil, rank.DefaultOptions()))
}

func randomStats(r *rand.Rand, n int) []stats.Stats {
	out := make([]stats.Stats, n)
	for i := range out {
		src := candidate.SourceBuiltin
		if i == n/2 {
			src = candidate.SourceCurrent
		}
		attempts := 3
		successes := r.IntN(attempts + 1)
		// Coarse latencies so exact and epsilon ties both occur.
		median := time.Duration(10+r.IntN(4)) * time.Millisecond
		out[i] = st(cand(string(rune('A'+i)), byte(i+1), src), attempts, successes, median)
	}
	return out
}

func TestRank_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	opts := rank.DefaultOptions()

	for range 200 {
		in := randomStats(r, 2+r.IntN(10))
		got := rank.Rank(in, opts)

		require.Len(t, got, len(in), "every candidate appears exactly once")
		seen := map[netip.AddrPort]bool{}
		for _, g := range got {
			assert.False(t, seen[g.Stats.Candidate.Address])
			seen[g.Stats.Candidate.Address] = true
		}

		assert.Equal(t, got, rank.Rank(in, opts), "idempotent")

		for i := 1; i < len(got); i++ {
			a, b := got[i-1].Stats, got[i].Stats
			if a.Successes == 0 {
				assert.Zero(t, b.Successes, "down resolvers are last")
				continue
			}
			if b.Successes == 0 {
				continue
			}
			ra, rb := a.SuccessRate(), b.SuccessRate()
			assert.GreaterOrEqual(t, ra, rb)
			if ra == rb {
				assert.LessOrEqual(t, a.Median, b.Median+opts.Epsilon)
			}
			assert.LessOrEqual(t, got[i-1].Score, got[i].Score+1)
		}
	}
}

func TestRanked_MarshalJSON(t *testing.T) {
	in := []stats.Stats{
		st(cand("up", 1, candidate.SourceBuiltin), 3, 3, 12*time.Millisecond),
		st(cand("down", 2, candidate.SourceBuiltin), 3, 0, 0),
	}
	got := rank.Rank(in, rank.DefaultOptions())

	data, err := json.Marshal(got)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.InDelta(t, 12.0, decoded[0]["score"], 1e-9)
	assert.Nil(t, decoded[1]["score"])
	assert.EqualValues(t, 2, decoded[1]["position"])
}
