package config

import (
	"github.com/spf13/cobra"

	"github.com/tbckr/dnsbench/internal/output"
)

// CompleteOutputFormat provides shell completion candidates for the --output flag.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return output.Formats(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteQueryType provides shell completion candidates for the --query-type flag.
func CompleteQueryType(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"A", "AAAA"}, cobra.ShellCompDirectiveNoFileComp
}
