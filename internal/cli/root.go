// Package cli provides the Cobra command tree and output wiring for dnsbench.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbckr/dnsbench/internal/config"
	"github.com/tbckr/dnsbench/internal/version"
)

// newRootCmd builds the top-level Cobra command for dnsbench. Running it
// without a subcommand benchmarks the resolver set.
// Callers must set stdout/stderr via cmd.SetOut / cmd.SetErr before Execute.
func newRootCmd() *cobra.Command {
	// d is populated by PersistentPreRunE before any subcommand's RunE runs.
	// Cobra only executes the innermost PersistentPreRunE in the command
	// chain; subcommands must not define their own unless they skip deps
	// entirely (see completion).
	var d deps

	cmd := &cobra.Command{
		Use:   "dnsbench",
		Short: "Benchmark DNS resolvers and find the fastest reliable one",
		Long: `dnsbench sends a few timed queries to every candidate resolver at once,
then ranks them: reliability first, median latency second.

Candidates are the built-in public resolvers, any --resolvers you add, an
optional --resolvers-url list, and the resolver your system currently uses.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			d = *resolved
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd, &d)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Version
	cmd.SetVersionTemplate("dnsbench version {{.Version}}\n")

	cmd.AddGroup(
		&cobra.Group{ID: "resolvers", Title: "Resolver Commands:"},
		&cobra.Group{ID: "utility", Title: "Utility Commands:"},
	)

	cmd.AddCommand(
		newListCmd(&d),
		newCurrentCmd(&d),
		newConfigCmd(&d),
		newCompletionCmd(),
		newVersionCmd(&d),
	)

	return cmd
}

// Execute builds the root command and runs it with args (without the program
// name).
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
