package probe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/candidate"
)

const (
	// DefaultQueryName is a stable, widely cached name.
	DefaultQueryName = "example.com."
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 300 * time.Millisecond

	// maxUDPSize is the largest datagram we read, per EDNS0 flag day 2020.
	maxUDPSize = 1232

	dnsHeaderLen    = 12
	coldPlaceholder = "00000000"
)

// Result is the outcome of one query attempt against one candidate.
// Elapsed and Rcode are meaningful only when Outcome is Success.
type Result struct {
	Candidate candidate.Candidate
	Attempt   int
	Elapsed   time.Duration
	Outcome   Outcome
	Rcode     int
	Err       error
}

// Prober runs one timed query. Implementations must return within timeout or
// once ctx is done, whichever comes first.
type Prober interface {
	Probe(ctx context.Context, c candidate.Candidate, attempt int, timeout time.Duration) Result
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, c candidate.Candidate, attempt int, timeout time.Duration) Result

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, c candidate.Candidate, attempt int, timeout time.Duration) Result {
	return f(ctx, c, attempt, timeout)
}

// Dialer opens the transient socket for an attempt. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// UDPProber sends one query per attempt over a fresh connected UDP socket.
type UDPProber struct {
	queryName string
	queryType uint16
	cold      bool
	dialer    Dialer

	// template is the packed query; each attempt copies it and rewrites the
	// id and, in cold mode, the leading label.
	template []byte
}

// Option configures a UDPProber.
type Option func(*UDPProber)

// WithQuery sets the probed name and record type.
func WithQuery(name string, qtype uint16) Option {
	return func(p *UDPProber) {
		p.queryName = dns.Fqdn(name)
		p.queryType = qtype
	}
}

// WithCold prefixes a random label to every query so resolvers must recurse
// instead of answering from cache.
func WithCold(cold bool) Option {
	return func(p *UDPProber) { p.cold = cold }
}

// WithDialer replaces the socket dialer.
func WithDialer(d Dialer) Option {
	return func(p *UDPProber) { p.dialer = d }
}

// NewUDPProber returns a prober querying DefaultQueryName for A records.
// The query is built once here; a name that cannot be encoded is rejected with
// apperr.ErrInvalidInput instead of surfacing later as a probe outcome.
func NewUDPProber(opts ...Option) (*UDPProber, error) {
	p := &UDPProber{
		queryName: DefaultQueryName,
		queryType: dns.TypeA,
		dialer:    &net.Dialer{},
	}
	for _, opt := range opts {
		opt(p)
	}

	name := p.queryName
	if p.cold {
		name = coldPlaceholder + "." + name
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return nil, fmt.Errorf("%w: invalid query name %q", apperr.ErrInvalidInput, p.queryName)
	}
	msg := new(dns.Msg)
	msg.SetQuestion(name, p.queryType)
	wire, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding query %q: %v", apperr.ErrInvalidInput, p.queryName, err)
	}
	p.template = wire
	return p, nil
}

// ParseQueryType accepts the record types a latency probe needs: A or AAAA.
func ParseQueryType(s string) (uint16, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return dns.TypeA, nil
	case "AAAA":
		return dns.TypeAAAA, nil
	default:
		return 0, fmt.Errorf("%w: query type must be A or AAAA, got %q", apperr.ErrInvalidInput, s)
	}
}

// Probe implements Prober.
func (p *UDPProber) Probe(ctx context.Context, c candidate.Candidate, attempt int, timeout time.Duration) Result {
	res := Result{Candidate: c, Attempt: attempt}
	if err := ctx.Err(); err != nil {
		return res.fail(Timeout, err)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	wire, id := p.packet()

	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	conn, err := p.dialer.DialContext(dialCtx, "udp", c.Address.String())
	if err != nil {
		return res.fail(classify(ctx, err), err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return res.fail(NetworkError, err)
	}
	// Unblock the read as soon as ctx ends; the deadline alone covers timeout.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	start := time.Now()
	if _, err := conn.Write(wire); err != nil {
		return res.fail(classify(ctx, err), err)
	}

	buf := make([]byte, maxUDPSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return res.fail(classify(ctx, err), err)
		}

		var reply dns.Msg
		if err := reply.Unpack(buf[:n]); err != nil {
			if n >= 2 && binary.BigEndian.Uint16(buf) != id {
				continue // garbage for some other query
			}
			return res.fail(MalformedResponse, err)
		}
		if !reply.Response || reply.Id != id {
			continue
		}

		res.Elapsed = time.Since(start)
		res.Outcome = Success
		res.Rcode = reply.Rcode
		return res
	}
}

// packet returns a fresh copy of the query with a random id.
func (p *UDPProber) packet() ([]byte, uint16) {
	wire := slices.Clone(p.template)
	id := dns.Id()
	binary.BigEndian.PutUint16(wire, id)
	if p.cold {
		// The question starts right after the header; its first label is the
		// placeholder, one length byte then the label itself.
		label := fmt.Sprintf("%08x", rand.Uint32()) //nolint:gosec // cache-busting label, not security sensitive
		copy(wire[dnsHeaderLen+1:], label)
	}
	return wire, id
}

func (r Result) fail(o Outcome, err error) Result {
	r.Outcome = o
	r.Err = err
	r.Elapsed = 0
	return r
}

// classify maps a socket error to Timeout or NetworkError.
func classify(ctx context.Context, err error) Outcome {
	if ctx.Err() != nil || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	return NetworkError
}
