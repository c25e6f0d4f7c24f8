// Package report holds the outcome of one benchmark round and renders it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/netip"
	"slices"
	"strconv"
	"time"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/output"
	"github.com/tbckr/dnsbench/internal/rank"
)

// OrgLookup resolves the operating organisation of an address.
type OrgLookup interface {
	Org(addr netip.Addr) string
}

// Report is the ranked result of a round. Treat it as immutable: accessors
// return copies.
type Report struct {
	Query     string
	StartedAt time.Time
	Elapsed   time.Duration

	ranked []rank.Ranked
	orgs   map[netip.AddrPort]string
}

// New builds a report from an already ranked list.
func New(query string, startedAt time.Time, elapsed time.Duration, ranked []rank.Ranked) Report {
	return Report{
		Query:     query,
		StartedAt: startedAt,
		Elapsed:   elapsed,
		ranked:    slices.Clone(ranked),
	}
}

// Ranked returns the full ranking, best first.
func (r Report) Ranked() []rank.Ranked {
	return slices.Clone(r.ranked)
}

// Len is the number of ranked candidates.
func (r Report) Len() int { return len(r.ranked) }

// Winner is the first ranked entry. ok is false only for an empty report.
// When AllFailed is true the winner is merely first in list order and must
// not be applied.
func (r Report) Winner() (winner rank.Ranked, ok bool) {
	if len(r.ranked) == 0 {
		return rank.Ranked{}, false
	}
	return r.ranked[0], true
}

// AllFailed reports whether no candidate answered a single probe.
func (r Report) AllFailed() bool {
	for _, e := range r.ranked {
		if e.Stats.Successes > 0 {
			return false
		}
	}
	return true
}

// Err returns apperr.ErrAllCandidatesFailed when AllFailed, nil otherwise.
func (r Report) Err() error {
	if r.AllFailed() {
		return fmt.Errorf("%w: %d candidates, no successful probe", apperr.ErrAllCandidatesFailed, len(r.ranked))
	}
	return nil
}

// Annotate returns a copy of r with organisation names from lookup. A nil
// lookup returns r unchanged.
func (r Report) Annotate(lookup OrgLookup) Report {
	if lookup == nil {
		return r
	}
	orgs := make(map[netip.AddrPort]string, len(r.ranked))
	for _, e := range r.ranked {
		addr := e.Stats.Candidate.Address
		if org := lookup.Org(addr.Addr()); org != "" {
			orgs[addr] = org
		}
	}
	r.ranked = slices.Clone(r.ranked)
	r.orgs = orgs
	return r
}

// Org returns the annotated organisation for c, if any.
func (r Report) Org(c candidate.Candidate) string {
	return r.orgs[c.Address]
}

func (r Report) annotated() bool { return len(r.orgs) > 0 }

// WriteTable renders the ranking with one row per candidate.
func (r Report) WriteTable(w io.Writer) error {
	header := []string{"#", "Resolver", "Address", "Success", "Median", "Mean", "Min", "Max"}
	if r.annotated() {
		header = append(header, "Org")
	}

	rows := make([][]string, 0, len(r.ranked))
	for _, e := range r.ranked {
		s := e.Stats
		label := s.Candidate.Label
		if s.Candidate.IsCurrent() {
			label += " *"
		}
		row := []string{
			strconv.Itoa(e.Position),
			label,
			s.Candidate.Host(),
			fmt.Sprintf("%d/%d", s.Successes, s.Attempts),
			latency(s.Successes, s.Median),
			latency(s.Successes, s.Mean),
			latency(s.Successes, s.Min),
			latency(s.Successes, s.Max),
		}
		if r.annotated() {
			row = append(row, r.orgs[s.Candidate.Address])
		}
		rows = append(rows, row)
	}

	table := output.NewWrappingTable(w, 20, 70)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WritePlain writes one tab-separated line per candidate, best first:
// position, address, median latency, successes/attempts, label.
func (r Report) WritePlain(w io.Writer) error {
	for _, e := range r.ranked {
		s := e.Stats
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%s\n",
			e.Position, s.Candidate.Host(), latency(s.Successes, s.Median),
			s.Successes, s.Attempts, s.Candidate.Label); err != nil {
			return err
		}
	}
	return nil
}

// latency renders d in milliseconds, or "-" when nothing succeeded.
func latency(successes int, d time.Duration) string {
	if successes == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fms", milliseconds(d))
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type jsonEntry struct {
	Position      int              `json:"position"`
	Label         string           `json:"label"`
	Address       string           `json:"address"`
	Source        candidate.Source `json:"source"`
	Org           string           `json:"org,omitempty"`
	Attempts      int              `json:"attempts"`
	Successes     int              `json:"successes"`
	Timeouts      int              `json:"timeouts"`
	NetworkErrors int              `json:"network_errors"`
	Malformed     int              `json:"malformed"`
	SuccessRate   float64          `json:"success_rate"`
	MinMS         *float64         `json:"min_ms"`
	MedianMS      *float64         `json:"median_ms"`
	MeanMS        *float64         `json:"mean_ms"`
	MaxMS         *float64         `json:"max_ms"`
	Score         *float64         `json:"score"`
	LastError     string           `json:"last_error,omitempty"`
}

type jsonReport struct {
	Query     string      `json:"query"`
	StartedAt time.Time   `json:"started_at"`
	ElapsedMS float64     `json:"elapsed_ms"`
	Winner    *string     `json:"winner"`
	AllFailed bool        `json:"all_failed"`
	Results   []jsonEntry `json:"results"`
}

// MarshalJSON encodes the report with latencies in milliseconds. Latency
// fields and score are null for candidates without any success. winner is the
// first ranked address, also when all_failed is set, and null only for an
// empty report.
func (r Report) MarshalJSON() ([]byte, error) {
	out := jsonReport{
		Query:     r.Query,
		StartedAt: r.StartedAt,
		ElapsedMS: milliseconds(r.Elapsed),
		AllFailed: r.AllFailed(),
		Results:   make([]jsonEntry, 0, len(r.ranked)),
	}
	if w, ok := r.Winner(); ok {
		addr := w.Stats.Candidate.Address.String()
		out.Winner = &addr
	}
	for _, e := range r.ranked {
		s := e.Stats
		entry := jsonEntry{
			Position:      e.Position,
			Label:         s.Candidate.Label,
			Address:       s.Candidate.Address.String(),
			Source:        s.Candidate.Source,
			Org:           r.orgs[s.Candidate.Address],
			Attempts:      s.Attempts,
			Successes:     s.Successes,
			Timeouts:      s.Timeouts,
			NetworkErrors: s.NetworkErrors,
			Malformed:     s.Malformed,
			SuccessRate:   s.SuccessRate(),
			LastError:     s.LastError,
		}
		if s.Successes > 0 {
			entry.MinMS = ptr(milliseconds(s.Min))
			entry.MedianMS = ptr(milliseconds(s.Median))
			entry.MeanMS = ptr(milliseconds(s.Mean))
			entry.MaxMS = ptr(milliseconds(s.Max))
		}
		if !math.IsInf(e.Score, 0) && !math.IsNaN(e.Score) {
			entry.Score = ptr(e.Score)
		}
		out.Results = append(out.Results, entry)
	}
	return json.Marshal(out)
}

func ptr[T any](v T) *T { return &v }
