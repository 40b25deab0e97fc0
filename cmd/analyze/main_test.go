package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidatesFlags(t *testing.T) {
	assert.ErrorContains(t, run("", "", "exact", 3, "literal", "warn"), "-file")
	assert.ErrorContains(t, run("x_data.json", "", "fuzzy", 3, "literal", "warn"), "-lookup")
	assert.ErrorContains(t, run("x_data.json", "", "exact", 3, "loose", "warn"), "-rule")
	assert.ErrorContains(t, run("x_data.json", "", "exact", 11, "literal", "warn"), "-max-gap")
	assert.ErrorContains(t, run("prices.json", "", "exact", 3, "literal", "warn"), "-symbol")
}

func TestStageFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "aapl_data.json")
	require.NoError(t, os.WriteFile(in, []byte(`{}`), 0o600))

	got, cleanup, err := stageFile(in, "AAPL")
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, dir, got)

	other := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"cramer_recommendations":[]}`), 0o600))
	staged, cleanup, err := stageFile(other, "$msft")
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(staged, "msft_data.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cramer_recommendations":[]}`, string(b))
	cleanup()
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}
