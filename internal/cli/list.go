package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/output"
	"github.com/tbckr/dnsbench/internal/sysdns"
)

func newListCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the resolvers a benchmark would test",
		Args:    cobra.NoArgs,
		GroupID: "resolvers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := d.candidateSet(cmd.Context())
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), d, set)
		},
	}
}

func newCurrentCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "current",
		Short:   "Show the resolvers the system is configured with",
		Args:    cobra.NoArgs,
		GroupID: "resolvers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := sysdns.All(d.cfg.ResolvConf)
			if errors.Is(err, apperr.ErrNoResolverConfigured) {
				d.logger.Debug("no system resolver", "error", err)
				if d.format != output.FormatJSON {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "automatic (DHCP)")
					return err
				}
			} else if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), d, candidate.NewSet(all, nil))
		},
	}
}
