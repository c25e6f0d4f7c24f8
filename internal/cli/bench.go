package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbckr/dnsbench/internal/bench"
	"github.com/tbckr/dnsbench/internal/geo"
	"github.com/tbckr/dnsbench/internal/output"
	"github.com/tbckr/dnsbench/internal/probe"
	"github.com/tbckr/dnsbench/internal/rank"
	"github.com/tbckr/dnsbench/internal/ratelimit"
	"github.com/tbckr/dnsbench/internal/scheduler"
)

// runBench benchmarks the candidate set once and writes the ranking. When no
// resolver answered, the ranking is still written and the command fails with
// apperr.ErrAllCandidatesFailed.
func runBench(cmd *cobra.Command, d *deps) error {
	ctx := cmd.Context()

	query, qtype, err := d.cfg.ProbeQuery()
	if err != nil {
		return err
	}
	prober, err := probe.NewUDPProber(probe.WithQuery(query, qtype), probe.WithCold(d.cfg.Cold))
	if err != nil {
		return err
	}
	set, err := d.candidateSet(ctx)
	if err != nil {
		return err
	}
	if cur, ok := set.Current(); ok {
		d.logger.Debug("current resolver", "resolver", cur.Label, "address", cur.Address.String())
	}

	db, err := geo.Open(d.cfg.GeoIPDB, d.logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	svc := bench.NewService(prober, d.logger, bench.Options{
		Rank:  rank.Options{Epsilon: d.cfg.Epsilon},
		Query: query + " " + strings.ToUpper(d.cfg.QueryType),
	})

	cfg := scheduler.Config{
		ProbesPerCandidate: d.cfg.Probes,
		Timeout:            d.cfg.Timeout,
		MaxInFlight:        d.cfg.Concurrency,
		Slack:              d.cfg.Slack,
		Limiter:            ratelimit.New(d.cfg.Rate, int(math.Ceil(d.cfg.Rate))),
	}

	d.logger.Debug("benchmark starting", "candidates", set.Len(), "query", query, "cold", d.cfg.Cold)
	rep, err := svc.Run(ctx, set, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		rep = rep.Annotate(db)
	}

	w := cmd.OutOrStdout()
	if err := writeResult(w, d, rep); err != nil {
		return err
	}
	if d.format == output.FormatTable {
		if winner, ok := rep.Winner(); ok && !rep.AllFailed() {
			if _, err := fmt.Fprintf(w, "\nFastest: %s, median %.2fms\n",
				winner.Stats.Candidate, float64(winner.Stats.Median)/1e6); err != nil {
				return err
			}
		}
	}
	return rep.Err()
}
