package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statisticsJSON = `{
  "Sampler1": {
    "transaction": "Sampler1", "sampleCount": 2, "errorCount": 0, "errorPct": 0.0,
    "meanResTime": 200.0, "medianResTime": 200.0, "minResTime": 100.0, "maxResTime": 300.0,
    "pct1ResTime": 300.0, "pct2ResTime": 300.0, "pct3ResTime": 300.0,
    "throughput": 1.5, "receivedKBytesPerSec": 0.75, "sentKBytesPerSec": 0.18
  },
  "Total": {
    "transaction": "Total", "sampleCount": 3, "errorCount": 1, "errorPct": 33.333332,
    "meanResTime": 200.0, "medianResTime": 200.0, "minResTime": 100.0, "maxResTime": 300.0,
    "pct1ResTime": 300.0, "pct2ResTime": 300.0, "pct3ResTime": 300.0,
    "throughput": 2.25, "receivedKBytesPerSec": 0.9, "sentKBytesPerSec": 0.27
  },
  "Sampler2": {
    "transaction": "Sampler2", "sampleCount": 1, "errorCount": 1, "errorPct": 100.0,
    "meanResTime": 200.0, "minResTime": 200.0, "maxResTime": 200.0, "throughput": 0.75
  }
}`

func TestParseStatistics(t *testing.T) {
	dash, err := ParseStatistics([]byte(statisticsJSON))
	require.NoError(t, err)

	assert.Equal(t, "Total", dash.Total.Transaction)
	assert.Equal(t, int64(3), dash.Total.SampleCount)
	assert.Equal(t, int64(1), dash.Total.ErrorCount)
	assert.InDelta(t, 33.33, dash.Total.ErrorPct, 0.01)
	assert.Equal(t, 2.25, dash.Total.Throughput)

	require.Len(t, dash.Transactions, 2)
	assert.Equal(t, int64(2), dash.Transactions["Sampler1"].SampleCount)
	assert.Equal(t, 300.0, dash.Transactions["Sampler1"].MaxResTime)
	assert.Equal(t, 0.75, dash.Transactions["Sampler2"].Throughput)
}

func TestParseStatistics_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{not json"},
		{name: "array", data: "[1,2,3]"},
		{name: "no total", data: `{"Sampler1": {"sampleCount": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatistics([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestReadStatistics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StatisticsFile), []byte(statisticsJSON), 0644))

	dash, err := ReadStatistics(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dash.Total.SampleCount)
}

func TestReadStatistics_Missing(t *testing.T) {
	_, err := ReadStatistics(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
