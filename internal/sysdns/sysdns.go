// Package sysdns discovers the resolvers the operating system is configured
// with.
package sysdns

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/miekg/dns"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/candidate"
)

// DefaultPath is the resolver configuration read when none is given.
const DefaultPath = "/etc/resolv.conf"

// CurrentLabel labels the system resolver in results.
const CurrentLabel = "Current (system)"

// All returns every usable nameserver in the resolv.conf-format file at path,
// in file order. Entries that are not IP addresses are skipped.
func All(path string) ([]candidate.Candidate, error) {
	if path == "" {
		path = DefaultPath
	}
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", apperr.ErrNoResolverConfigured, path, err)
	}

	port := uint64(candidate.DefaultPort)
	if conf.Port != "" {
		if p, err := strconv.ParseUint(conf.Port, 10, 16); err == nil && p != 0 {
			port = p
		}
	}

	var out []candidate.Candidate
	for _, s := range conf.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			continue
		}
		out = append(out, candidate.Candidate{
			Address: netip.AddrPortFrom(addr, uint16(port)),
			Label:   CurrentLabel,
			Source:  candidate.SourceCurrent,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no nameserver in %s", apperr.ErrNoResolverConfigured, path)
	}
	return out, nil
}

// Current returns the first configured nameserver, the one the system
// resolver tries first.
func Current(path string) (candidate.Candidate, error) {
	all, err := All(path)
	if err != nil {
		return candidate.Candidate{}, err
	}
	return all[0], nil
}
