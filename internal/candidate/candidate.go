package candidate

import (
	"encoding/json"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/tbckr/dnsbench/internal/apperr"
)

// DefaultPort is the DNS port used when an address omits one.
const DefaultPort = 53

// Source records where a candidate came from.
type Source int

const (
	// SourceBuiltin marks entries from the static provider list.
	SourceBuiltin Source = iota
	// SourceConfigured marks entries supplied by flags, config or a remote list.
	SourceConfigured
	// SourceCurrent marks the resolver the system is currently configured with.
	SourceCurrent
)

func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceConfigured:
		return "configured"
	case SourceCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the source by name.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Candidate is one resolver under test. Its identity is Address; values are
// never mutated after construction.
type Candidate struct {
	Address netip.AddrPort `json:"address"`
	Label   string         `json:"label"`
	Source  Source         `json:"source"`
}

// New builds a candidate from an IP and label using the default DNS port.
func New(label string, addr netip.Addr, src Source) Candidate {
	return Candidate{Address: netip.AddrPortFrom(addr, DefaultPort), Label: label, Source: src}
}

// IsCurrent reports whether c is the system's currently configured resolver.
func (c Candidate) IsCurrent() bool { return c.Source == SourceCurrent }

// String returns "Label (address)".
func (c Candidate) String() string {
	return fmt.Sprintf("%s (%s)", c.Label, c.Host())
}

// Host renders the address without the port when it is the default one.
func (c Candidate) Host() string {
	if c.Address.Port() == DefaultPort {
		return c.Address.Addr().String()
	}
	return c.Address.String()
}

// withSource returns a copy of c tagged with src.
func (c Candidate) withSource(src Source) Candidate {
	c.Source = src
	return c
}

// Parse accepts "Label=addr[:port]" or a bare "addr[:port]". IPv6 addresses
// with a port must be bracketed. The label defaults to the address.
func Parse(s string, src Source) (Candidate, error) {
	s = strings.TrimSpace(s)
	label, addr, found := strings.Cut(s, "=")
	if !found {
		addr, label = label, ""
	}
	label = strings.TrimSpace(label)
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Candidate{}, fmt.Errorf("%w: empty resolver address in %q", apperr.ErrInvalidInput, s)
	}

	ap, err := ParseAddress(addr)
	if err != nil {
		return Candidate{}, err
	}
	if label == "" {
		label = ap.Addr().String()
	}
	return Candidate{Address: ap, Label: label, Source: src}, nil
}

// ParseAddress parses "ip", "ip:port" or "[ipv6]:port" into an AddrPort,
// filling in DefaultPort.
func ParseAddress(s string) (netip.AddrPort, error) {
	if ip, err := netip.ParseAddr(s); err == nil {
		return netip.AddrPortFrom(ip.Unmap(), DefaultPort), nil
	}
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: resolver address must be an IP or IP:port: %q", apperr.ErrInvalidInput, s)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: resolver host must be an IP address: %q", apperr.ErrInvalidInput, host)
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil || p == 0 {
		return netip.AddrPort{}, fmt.Errorf("%w: invalid resolver port %q", apperr.ErrInvalidInput, port)
	}
	return netip.AddrPortFrom(ip.Unmap(), uint16(p)), nil
}

// ParseList parses lines in order. Blank lines and lines starting with '#'
// are skipped; the first malformed entry aborts with its line number.
func ParseList(lines []string, src Source) ([]Candidate, error) {
	var out []Candidate
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := Parse(line, src)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, c)
	}
	return out, nil
}
