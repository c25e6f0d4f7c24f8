package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/imroc/req/v3"
	"github.com/spf13/cobra"

	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/config"
	"github.com/tbckr/dnsbench/internal/httpclient"
	"github.com/tbckr/dnsbench/internal/output"
	"github.com/tbckr/dnsbench/internal/sysdns"
)

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	logger *slog.Logger
	cfg    *config.Config
	format output.Format
}

// buildDeps resolves config, logger, and output format.
func buildDeps(cmd *cobra.Command, stderr io.Writer) (*deps, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("--concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &deps{cfg: cfg, logger: logger, format: format}, nil
}

// newHTTPClient creates the list-download client from the proxy, user-agent
// and verbosity settings, retrying transient failures.
func (d *deps) newHTTPClient() (*req.Client, error) {
	client, err := httpclient.New(d.cfg.Proxy, d.cfg.UserAgent, d.logger, d.cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	httpclient.AttachRetry(client, httpclient.DefaultRetryPolicy(), d.logger)
	return client, nil
}

// candidateSet assembles the resolvers to benchmark: built-ins, configured
// entries, the remote list, then the current system resolver. Failing to find
// the system resolver is logged and never fatal.
func (d *deps) candidateSet(ctx context.Context) (candidate.Set, error) {
	var list []candidate.Candidate
	if !d.cfg.NoBuiltin {
		list = append(list, candidate.Builtin()...)
	}

	configured, err := candidate.ParseList(d.cfg.Resolvers, candidate.SourceConfigured)
	if err != nil {
		return candidate.Set{}, fmt.Errorf("parsing --resolvers: %w", err)
	}
	list = append(list, configured...)

	if d.cfg.ResolversURL != "" {
		client, err := d.newHTTPClient()
		if err != nil {
			return candidate.Set{}, err
		}
		remote, err := candidate.NewFetcher(client, d.logger).Fetch(ctx, d.cfg.ResolversURL)
		if err != nil {
			return candidate.Set{}, err
		}
		list = append(list, remote...)
	}

	var current *candidate.Candidate
	if c, err := sysdns.Current(d.cfg.ResolvConf); err != nil {
		d.logger.Warn("current resolver unknown, benchmarking without it", "error", err)
	} else {
		current = &c
	}

	return candidate.NewSet(list, current), nil
}

// writeResult formats and writes a result to stdout.
func writeResult(stdout io.Writer, d *deps, result any) error {
	if err := output.Write(stdout, d.format, result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
