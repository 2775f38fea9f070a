package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/marketlens/internal/log"
	"github.com/marketlens/marketlens/internal/survey"
)

// execute runs the root command with the given arguments and returns
// its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("MARKETLENS_DATA_DIR", t.TempDir())

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "marketlens")
	assert.Contains(t, out, "Git Commit")
	assert.Contains(t, out, "Provider: gemini")
}

func TestSeedCommand(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("MARKETLENS_DATA_DIR", dataDir)

	out, err := execute(t, "seed", "--users", "2", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "2 respondents")

	store, err := survey.Open(filepath.Join(dataDir, "survey.db"), log.NewNop())
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestSeedCommand_RejectsNonPositiveUsers(t *testing.T) {
	t.Setenv("MARKETLENS_DATA_DIR", t.TempDir())

	_, err := execute(t, "seed", "--users", "0")
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "definitely-not-a-command")
	assert.Error(t, err)
}
