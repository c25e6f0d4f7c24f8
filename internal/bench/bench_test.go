package bench_test

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/bench"
	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/probe"
	"github.com/tbckr/dnsbench/internal/rank"
	"github.com/tbckr/dnsbench/internal/scheduler"
	"github.com/tbckr/dnsbench/internal/testutil"
)

func addr(last byte) netip.Addr { return netip.AddrFrom4([4]byte{192, 0, 2, last}) }

func newService(p probe.Prober) *bench.Service {
	return bench.NewService(p, testutil.NopLogger(), bench.Options{Rank: rank.DefaultOptions(), Query: "example.com. A"})
}

func testConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.Timeout = 200 * time.Millisecond
	cfg.Slack = 100 * time.Millisecond
	return cfg
}

func TestRun_ReliabilityThenLatency(t *testing.T) {
	r1 := candidate.New("R1", addr(1), candidate.SourceBuiltin)
	r2 := candidate.New("R2", addr(2), candidate.SourceBuiltin)
	r3 := candidate.New("R3", addr(3), candidate.SourceBuiltin)

	prober := &testutil.ScriptedProber{Scripts: map[netip.AddrPort][]testutil.Step{
		r1.Address: testutil.Always(probe.Success, 10*time.Millisecond),
		r2.Address: testutil.Always(probe.Timeout, 0),
		r3.Address: {
			{Outcome: probe.Success, Elapsed: 50 * time.Millisecond},
			{Outcome: probe.Timeout},
			{Outcome: probe.Success, Elapsed: 50 * time.Millisecond},
		},
	}}

	rep, err := newService(prober).Run(context.Background(), candidate.NewSet([]candidate.Candidate{r1, r2, r3}, nil), testConfig())
	require.NoError(t, err)
	require.NoError(t, rep.Err())

	ranked := rep.Ranked()
	require.Len(t, ranked, 3)
	assert.Equal(t, r1, ranked[0].Stats.Candidate)
	assert.Equal(t, r3, ranked[1].Stats.Candidate)
	assert.Equal(t, r2, ranked[2].Stats.Candidate)

	assert.Equal(t, 3, ranked[0].Stats.Successes)
	assert.Equal(t, 2, ranked[1].Stats.Successes)
	assert.Zero(t, ranked[2].Stats.Successes)

	w, ok := rep.Winner()
	require.True(t, ok)
	assert.Equal(t, r1, w.Stats.Candidate)
	assert.Equal(t, "example.com. A", rep.Query)
}

func TestRun_AllTimeOut(t *testing.T) {
	list := []candidate.Candidate{
		candidate.New("A", addr(1), candidate.SourceBuiltin),
		candidate.New("B", addr(2), candidate.SourceBuiltin),
		candidate.New("C", addr(3), candidate.SourceBuiltin),
	}
	hang := []testutil.Step{{Hang: true}}
	prober := &testutil.ScriptedProber{Scripts: map[netip.AddrPort][]testutil.Step{
		list[0].Address: hang, list[1].Address: hang, list[2].Address: hang,
	}}
	cfg := testConfig()

	start := time.Now()
	rep, err := newService(prober).Run(context.Background(), candidate.NewSet(list, nil), cfg)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), cfg.Deadline()+250*time.Millisecond)

	require.ErrorIs(t, rep.Err(), apperr.ErrAllCandidatesFailed)
	assert.True(t, rep.AllFailed())
	ranked := rep.Ranked()
	require.Len(t, ranked, 3)
	for i, r := range ranked {
		assert.Equal(t, list[i], r.Stats.Candidate, "list order kept")
		assert.Equal(t, cfg.ProbesPerCandidate, r.Stats.Timeouts)
	}
}

func TestRun_CurrentResolverWinsTie(t *testing.T) {
	other := candidate.New("Other", addr(1), candidate.SourceBuiltin)
	current := candidate.New("Current (system)", addr(2), candidate.SourceCurrent)

	prober := &testutil.ScriptedProber{Scripts: map[netip.AddrPort][]testutil.Step{
		other.Address:   testutil.Always(probe.Success, 20*time.Millisecond),
		current.Address: testutil.Always(probe.Success, 20*time.Millisecond),
	}}

	rep, err := newService(prober).Run(context.Background(), candidate.NewSet([]candidate.Candidate{other}, &current), testConfig())
	require.NoError(t, err)

	w, ok := rep.Winner()
	require.True(t, ok)
	assert.Equal(t, current, w.Stats.Candidate)
}

func TestRun_NoCandidates(t *testing.T) {
	_, err := newService(&testutil.ScriptedProber{}).Run(context.Background(), candidate.NewSet(nil, nil), testConfig())
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRun_InvalidConfig(t *testing.T) {
	c := candidate.New("A", addr(1), candidate.SourceBuiltin)
	cfg := testConfig()
	cfg.ProbesPerCandidate = 0
	_, err := newService(&testutil.ScriptedProber{}).Run(context.Background(), candidate.NewSet([]candidate.Candidate{c}, nil), cfg)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRun_EndToEndOverUDP(t *testing.T) {
	fast := candidate.Candidate{Address: testutil.StartDNSServer(t, 0), Label: "fast", Source: candidate.SourceConfigured}
	slow := candidate.Candidate{Address: testutil.StartDNSServer(t, 40*time.Millisecond), Label: "slow", Source: candidate.SourceConfigured}
	silent := candidate.Candidate{
		Address: testutil.StartRawUDPServer(t, func(*dns.Msg) [][]byte { return nil }),
		Label:   "silent",
		Source:  candidate.SourceConfigured,
	}
	refused := candidate.Candidate{Address: testutil.ClosedUDPAddr(t), Label: "refused", Source: candidate.SourceConfigured}

	list := []candidate.Candidate{silent, slow, refused, fast}
	prober, err := probe.NewUDPProber()
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Timeout = 200 * time.Millisecond

	rep, err := newService(prober).Run(context.Background(), candidate.NewSet(list, nil), cfg)
	require.NoError(t, err)
	require.NoError(t, rep.Err())

	ranked := rep.Ranked()
	require.Len(t, ranked, len(list))
	assert.Equal(t, "fast", ranked[0].Stats.Candidate.Label)
	assert.Equal(t, "slow", ranked[1].Stats.Candidate.Label)
	// Both failures keep list order.
	assert.Equal(t, "silent", ranked[2].Stats.Candidate.Label)
	assert.Equal(t, "refused", ranked[3].Stats.Candidate.Label)

	for _, r := range ranked {
		assert.LessOrEqual(t, r.Stats.Successes, r.Stats.Attempts)
		assert.Equal(t, cfg.ProbesPerCandidate, r.Stats.Attempts)
	}
	assert.Equal(t, cfg.ProbesPerCandidate, ranked[2].Stats.Timeouts)
	assert.Positive(t, ranked[3].Stats.NetworkErrors+ranked[3].Stats.Timeouts)
}
