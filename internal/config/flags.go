package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tbckr/dnsbench/internal/output"
	"github.com/tbckr/dnsbench/internal/probe"
	"github.com/tbckr/dnsbench/internal/rank"
	"github.com/tbckr/dnsbench/internal/scheduler"
	"github.com/tbckr/dnsbench/internal/sysdns"
)

// RegisterFlags adds every config flag to flags. Flag names are the config
// keys with underscores replaced by hyphens.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: $XDG_CONFIG_HOME/dnsbench/config.yaml)")
	flags.BoolP("verbose", "v", false, "enable verbose logging (debug level)")
	flags.StringP("output", "o", string(output.FormatTable), "output format: table, json, plain")

	flags.IntP("probes", "n", scheduler.DefaultProbesPerCandidate, "queries sent to each resolver")
	flags.DurationP("timeout", "t", probe.DefaultTimeout, "timeout per query")
	flags.IntP("concurrency", "c", scheduler.DefaultMaxInFlight, "maximum queries in flight")
	flags.Duration("slack", scheduler.DefaultSlack, "extra time allowed for the whole round beyond timeout x probes")
	flags.Float64("rate", 0, "maximum queries per second across all resolvers (0 = unlimited)")
	flags.Duration("epsilon", rank.DefaultEpsilon, "median latencies within this window rank as equal")

	flags.StringP("query", "q", probe.DefaultQueryName, "name to query")
	flags.String("query-type", "A", "record type to query: A or AAAA")
	flags.Bool("cold", false, "prefix a random label to each query to bypass resolver caches")

	flags.StringSliceP("resolvers", "r", nil, "additional resolvers as [label=]addr[:port], repeatable or comma separated")
	flags.String("resolvers-url", "", "URL of a newline separated resolver list to add")
	flags.Bool("no-builtin", false, "skip the built-in resolver list")
	flags.String("resolv-conf", sysdns.DefaultPath, "resolver configuration used to find the current system resolver")
	flags.String("geoip-db", "", "MaxMind ASN database used to annotate results with the operator")

	flags.String("proxy", "", "proxy URL for downloading resolver lists (http, https, socks5)")
	flags.String("user-agent", "", "User-Agent for downloading resolver lists")
}

// RegisterFlagCompletions registers shell completions for enum flags on cmd.
func RegisterFlagCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output", CompleteOutputFormat)
	_ = cmd.RegisterFlagCompletionFunc("query-type", CompleteQueryType)
	_ = cmd.RegisterFlagCompletionFunc("geoip-db", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"mmdb"}, cobra.ShellCompDirectiveFilterFileExt
	})
}
