package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// shellCompletion describes one supported shell.
type shellCompletion struct {
	name    string
	install string
	gen     func(root *cobra.Command, w io.Writer) error
}

var shells = []shellCompletion{
	{
		name:    "bash",
		install: "dnsbench completion bash > /etc/bash_completion.d/dnsbench",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	},
	{
		name:    "zsh",
		install: `dnsbench completion zsh > "${fpath[1]}/_dnsbench"`,
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	},
	{
		name:    "fish",
		install: "dnsbench completion fish > ~/.config/fish/completions/dnsbench.fish",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	},
	{
		name:    "powershell",
		install: "dnsbench completion powershell >> $PROFILE",
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
	},
}

func newCompletionCmd() *cobra.Command {
	completion := &cobra.Command{
		Use:     "completion [bash|zsh|fish|powershell]",
		Short:   "Generate shell completion scripts",
		GroupID: "utility",
		// Override root's PersistentPreRunE: buildDeps must not run during
		// tab-completion because it creates the config file.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
	}

	for _, sh := range shells {
		completion.AddCommand(&cobra.Command{
			Use:                   sh.name,
			Short:                 "Generate " + sh.name + " completion script",
			Long:                  "Generate the autocompletion script for " + sh.name + ".\n\nTo load completions for every new session, execute once:\n  $ " + sh.install,
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return sh.gen(cmd.Root(), cmd.OutOrStdout())
			},
		})
	}

	return completion
}
