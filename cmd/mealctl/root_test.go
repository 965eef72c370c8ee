package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"migrate"},
		{"reconcile"},
		{"roster"},
		{"dlq", "list"},
		{"dlq", "replay"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	flag := dlqListCmd.InheritedFlags().Lookup("queue")
	require.NotNil(t, flag)
	assert.Equal(t, "claims", flag.DefValue)
}
