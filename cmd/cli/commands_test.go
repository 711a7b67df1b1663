package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"districtrisk/domain/observation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_SOURCE", "synthetic")
	t.Setenv("DATA_FILE", "")
	t.Setenv("MODEL_FILE", "")
	t.Setenv("LOG_LEVEL", "ERROR")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatesCmd(t *testing.T) {
	out, err := runCLI(t, "states")
	require.NoError(t, err)
	assert.Contains(t, out, "STATE")
	assert.Contains(t, out, "Kerala")
}

func TestTopCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "top", "--limit", "3", "--state", "Bihar", "--json")
	require.NoError(t, err)

	var entries []observation.RankingEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, "Bihar", e.State)
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, entries[i-1].Score, e.Score)
		}
	}
}

func TestTopCmd_BadOrder(t *testing.T) {
	_, err := runCLI(t, "top", "--order", "sideways")
	assert.Error(t, err)
}

func TestTrendCmd_UnknownDistrict(t *testing.T) {
	_, err := runCLI(t, "trend", "Bihar", "Nowhere")
	assert.Error(t, err)
}

func TestHotspotsCmd_SingleState(t *testing.T) {
	out, err := runCLI(t, "hotspots", "Assam", "--sensitivity", "1")
	require.NoError(t, err)

	var report observation.HotspotReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Assam", report.State)
	assert.Equal(t, 1.0, report.Sensitivity)
	assert.Len(t, report.Districts, 8)
}

func TestExportCmd_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked.csv")
	_, err := runCLI(t, "export", "--state", "Kerala", "--decimals", "3", "--out", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 9)
	assert.Equal(t, "state", records[0][0])
	for _, rec := range records[1:] {
		assert.Equal(t, "Kerala", rec[0])
	}
}
