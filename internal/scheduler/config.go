package scheduler

import (
	"fmt"
	"time"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/probe"
	"github.com/tbckr/dnsbench/internal/ratelimit"
)

const (
	// DefaultProbesPerCandidate is the attempt budget per resolver.
	DefaultProbesPerCandidate = 3
	// MaxProbesPerCandidate caps the attempt budget.
	MaxProbesPerCandidate = 20
	// DefaultMaxInFlight bounds concurrent probes.
	DefaultMaxInFlight = 32
	// DefaultSlack is added to the round deadline for scheduling overhead.
	DefaultSlack = 250 * time.Millisecond

	// joinGrace is how long the collector waits past the round deadline for
	// workers to hand back results already unblocked by it.
	joinGrace = 50 * time.Millisecond
)

// Config controls one benchmark round.
type Config struct {
	ProbesPerCandidate int
	Timeout            time.Duration
	MaxInFlight        int
	Slack              time.Duration
	// Limiter paces probe sends; nil disables pacing.
	Limiter *ratelimit.Limiter
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ProbesPerCandidate: DefaultProbesPerCandidate,
		Timeout:            probe.DefaultTimeout,
		MaxInFlight:        DefaultMaxInFlight,
		Slack:              DefaultSlack,
	}
}

// Validate rejects configurations that would make the round unbounded.
func (c Config) Validate() error {
	if c.ProbesPerCandidate < 1 || c.ProbesPerCandidate > MaxProbesPerCandidate {
		return fmt.Errorf("%w: probes per candidate must be between 1 and %d, got %d",
			apperr.ErrInvalidInput, MaxProbesPerCandidate, c.ProbesPerCandidate)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: probe timeout must be positive, got %s", apperr.ErrInvalidInput, c.Timeout)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("%w: max in-flight probes must be at least 1, got %d", apperr.ErrInvalidInput, c.MaxInFlight)
	}
	if c.Slack < 0 {
		return fmt.Errorf("%w: deadline slack must not be negative, got %s", apperr.ErrInvalidInput, c.Slack)
	}
	return nil
}

// Deadline is the round budget: Timeout * ProbesPerCandidate + Slack.
func (c Config) Deadline() time.Duration {
	return c.Timeout*time.Duration(c.ProbesPerCandidate) + c.Slack
}
