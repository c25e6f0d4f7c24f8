package candidate

import (
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"strconv"

	"github.com/tbckr/dnsbench/internal/output"
)

// Set is an ordered, duplicate-free list of candidates. Order is the
// candidate-list order the ranker falls back on for ties.
type Set struct {
	candidates []Candidate
}

// NewSet builds a Set from list plus the optional current resolver.
//
// Duplicate addresses keep their first occurrence. When current shares an
// address with a list entry, that entry is re-tagged SourceCurrent in place
// and keeps its label and position; otherwise current is appended last.
func NewSet(list []Candidate, current *Candidate) Set {
	seen := make(map[netip.AddrPort]int, len(list)+1)
	out := make([]Candidate, 0, len(list)+1)
	for _, c := range list {
		if _, dup := seen[c.Address]; dup {
			continue
		}
		seen[c.Address] = len(out)
		out = append(out, c)
	}

	if current != nil {
		if i, ok := seen[current.Address]; ok {
			out[i] = out[i].withSource(SourceCurrent)
		} else {
			out = append(out, current.withSource(SourceCurrent))
		}
	}
	return Set{candidates: out}
}

// Candidates returns a copy of the ordered candidates.
func (s Set) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// Len returns the number of candidates.
func (s Set) Len() int { return len(s.candidates) }

// Current returns the candidate tagged as the system resolver, if any.
func (s Set) Current() (Candidate, bool) {
	for _, c := range s.candidates {
		if c.IsCurrent() {
			return c, true
		}
	}
	return Candidate{}, false
}

// WriteTable renders the set in benchmark order.
func (s Set) WriteTable(w io.Writer) error {
	rows := make([][]string, 0, len(s.candidates))
	for i, c := range s.candidates {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Label, c.Host(), c.Source.String()})
	}
	table := output.NewWrappingTable(w, 20, 30)
	table.Header([]string{"#", "Resolver", "Address", "Source"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain writes one address per line, suitable for --resolvers-url lists.
func (s Set) WritePlain(w io.Writer) error {
	for _, c := range s.candidates {
		if _, err := fmt.Fprintf(w, "%s=%s\n", c.Label, c.Address); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the set as an array, empty rather than null.
func (s Set) MarshalJSON() ([]byte, error) {
	out := make([]Candidate, len(s.candidates))
	copy(out, s.candidates)
	return json.Marshal(out)
}
