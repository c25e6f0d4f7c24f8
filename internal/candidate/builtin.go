package candidate

import "net/netip"

// builtinProviders is the well-known public resolver list, primary before
// secondary for each provider.
var builtinProviders = []struct {
	label string
	addr  string
}{
	{"Cloudflare Primary", "1.1.1.1"},
	{"Cloudflare Secondary", "1.0.0.1"},
	{"Google Primary", "8.8.8.8"},
	{"Google Secondary", "8.8.4.4"},
	{"Quad9 Primary", "9.9.9.9"},
	{"Quad9 Secondary", "149.112.112.112"},
	{"OpenDNS Primary", "208.67.222.222"},
	{"OpenDNS Secondary", "208.67.220.220"},
	{"AdGuard Primary", "94.140.14.14"},
	{"AdGuard Secondary", "94.140.15.15"},
	{"CleanBrowsing Primary", "185.228.168.9"},
	{"CleanBrowsing Secondary", "185.228.169.9"},
	{"Level3 Primary", "4.2.2.1"},
	{"Level3 Secondary", "4.2.2.2"},
	{"Comodo Primary", "8.26.56.26"},
	{"Comodo Secondary", "8.20.247.20"},
	{"Verisign Primary", "64.6.64.6"},
	{"Verisign Secondary", "64.6.65.6"},
	{"NextDNS", "45.90.28.167"},
}

// Builtin returns a fresh copy of the built-in provider list.
func Builtin() []Candidate {
	out := make([]Candidate, 0, len(builtinProviders))
	for _, p := range builtinProviders {
		out = append(out, New(p.label, netip.MustParseAddr(p.addr), SourceBuiltin))
	}
	return out
}
