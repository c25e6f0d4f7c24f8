package testutil

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/probe"
)

// Step is the scripted outcome of one attempt.
type Step struct {
	Outcome probe.Outcome
	Elapsed time.Duration
	// Hang blocks the attempt until ctx is done, then reports Timeout.
	Hang bool
}

// ScriptedProber replays per-address scripts indexed by attempt number
// without touching the network. Addresses without a script time out.
type ScriptedProber struct {
	Scripts map[netip.AddrPort][]Step

	mu    sync.Mutex
	calls map[netip.AddrPort]int
}

// Probe implements probe.Prober.
func (s *ScriptedProber) Probe(ctx context.Context, c candidate.Candidate, attempt int, timeout time.Duration) probe.Result {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[netip.AddrPort]int)
	}
	s.calls[c.Address]++
	s.mu.Unlock()

	res := probe.Result{Candidate: c, Attempt: attempt, Outcome: probe.Timeout}
	script := s.Scripts[c.Address]
	if len(script) == 0 {
		return res
	}
	step := script[attempt%len(script)]
	if step.Hang {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		return res
	}
	if ctx.Err() != nil {
		return res
	}
	res.Outcome = step.Outcome
	if step.Outcome == probe.Success {
		res.Elapsed = step.Elapsed
	}
	return res
}

// Calls returns how many attempts were made against addr.
func (s *ScriptedProber) Calls(addr netip.AddrPort) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[addr]
}

// Always repeats one step for every attempt.
func Always(o probe.Outcome, elapsed time.Duration) []Step {
	return []Step{{Outcome: o, Elapsed: elapsed}}
}
