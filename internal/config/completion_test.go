package config_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/tbckr/dnsbench/internal/config"
)

func TestCompleteOutputFormat(t *testing.T) {
	vals, directive := config.CompleteOutputFormat(nil, nil, "j")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.ElementsMatch(t, []string{"table", "json", "plain"}, vals)
}

func TestCompleteQueryType(t *testing.T) {
	vals, directive := config.CompleteQueryType(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{"A", "AAAA"}, vals)
}
