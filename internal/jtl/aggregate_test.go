package jtl

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{Label: "Sampler1", Elapsed: 100, Success: true},
		{Label: "Sampler2", Elapsed: 200, Success: false},
		{Label: "Sampler1", Elapsed: 300, Success: true},
	}
}

func TestAggregate_Sample(t *testing.T) {
	summary, err := Aggregate(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Overall.Count)
	assert.Equal(t, 200.0, summary.Overall.Mean)
	assert.Equal(t, 300.0, summary.Overall.Max)
	assert.Equal(t, 100.0, summary.Overall.Min)
	assert.Equal(t, 1, summary.Overall.Errors)
	assert.InDelta(t, 33.33, summary.ErrorRate, 0.01)
	assert.False(t, summary.HasThroughput)

	require.Len(t, summary.Labels, 2)

	s1 := summary.Labels[0]
	assert.Equal(t, "Sampler1", s1.Label)
	assert.Equal(t, 2, s1.Count)
	assert.Equal(t, 200.0, s1.Mean)
	assert.Equal(t, 300.0, s1.Max)
	assert.Equal(t, 100.0, s1.Min)
	assert.Equal(t, 0, s1.Errors)

	s2 := summary.Labels[1]
	assert.Equal(t, "Sampler2", s2.Label)
	assert.Equal(t, 1, s2.Count)
	assert.Equal(t, 200.0, s2.Mean)
	assert.Equal(t, 1, s2.Errors)
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil)
	assert.True(t, errors.Is(err, ErrNoRecords))
}

func TestErrorRate(t *testing.T) {
	tests := []struct {
		name    string
		errors  int
		total   int
		want    float64
		wantErr bool
	}{
		{name: "no errors", errors: 0, total: 10, want: 0},
		{name: "all errors", errors: 4, total: 4, want: 100},
		{name: "one third", errors: 1, total: 3, want: 100.0 / 3},
		{name: "zero total", errors: 0, total: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ErrorRate(tt.errors, tt.total)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoRecords)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAggregate_LabelCountsSumToTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	labels := []string{"login", "search", "checkout", "logout", "Login"}

	for trial := 0; trial < 20; trial++ {
		n := 1 + rng.Intn(500)
		records := make([]Record, n)
		for i := range records {
			records[i] = Record{
				Label:   labels[rng.Intn(len(labels))],
				Elapsed: float64(rng.Intn(5000)),
				Success: rng.Intn(10) > 0,
			}
		}

		summary, err := Aggregate(records)
		require.NoError(t, err)

		sum := 0
		for _, l := range summary.Labels {
			sum += l.Count
		}
		assert.Equal(t, summary.Overall.Count, sum, "trial %d", trial)
		assert.Equal(t, n, summary.Overall.Count)
	}
}

func TestAggregate_LabelsAreCaseSensitive(t *testing.T) {
	summary, err := Aggregate([]Record{
		{Label: "Login", Elapsed: 1, Success: true},
		{Label: "login", Elapsed: 2, Success: true},
		{Label: "login ", Elapsed: 3, Success: true},
	})
	require.NoError(t, err)
	assert.Len(t, summary.Labels, 3)
}

func TestAggregate_FirstOccurrenceOrder(t *testing.T) {
	summary, err := Aggregate([]Record{
		{Label: "c", Elapsed: 1, Success: true},
		{Label: "a", Elapsed: 1, Success: true},
		{Label: "c", Elapsed: 1, Success: true},
		{Label: "b", Elapsed: 1, Success: true},
	})
	require.NoError(t, err)

	var got []string
	for _, l := range summary.Labels {
		got = append(got, l.Label)
	}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestAggregate_OverallNotDerivedFromGroups(t *testing.T) {
	// Unweighted mean of label means would be (10 + 1000) / 2 = 505.
	records := []Record{
		{Label: "fast", Elapsed: 10, Success: true},
		{Label: "fast", Elapsed: 10, Success: true},
		{Label: "fast", Elapsed: 10, Success: true},
		{Label: "slow", Elapsed: 1000, Success: true},
	}

	summary, err := Aggregate(records)
	require.NoError(t, err)
	assert.InDelta(t, 257.5, summary.Overall.Mean, 1e-9)
}

func TestAggregate_Percentiles(t *testing.T) {
	var records []Record
	for i := 1; i <= 100; i++ {
		records = append(records, Record{Label: "api", Elapsed: float64(i), Success: true})
	}

	summary, err := Aggregate(records)
	require.NoError(t, err)

	api := summary.Labels[0]
	assert.InDelta(t, 90, api.P90, 0.1)
	assert.InDelta(t, 95, api.P95, 0.1)
	assert.InDelta(t, 99, api.P99, 0.1)
	assert.InDelta(t, summary.Overall.P99, api.P99, 1e-9)
}

func TestAggregate_Throughput(t *testing.T) {
	base := int64(1_700_000_000_000)
	records := []Record{
		{Label: "a", Elapsed: 100, Success: true, Timestamp: base},
		{Label: "b", Elapsed: 100, Success: true, Timestamp: base + 500},
		{Label: "a", Elapsed: 100, Success: true, Timestamp: base + 900},
		{Label: "b", Elapsed: 100, Success: true, Timestamp: base + 1900},
	}

	summary, err := Aggregate(records)
	require.NoError(t, err)
	require.True(t, summary.HasThroughput)

	// Four requests between base and base+2000ms.
	assert.InDelta(t, 2.0, summary.Overall.Throughput, 1e-9)
	// Label a: two requests between base and base+1000ms.
	assert.InDelta(t, 2.0, summary.Labels[0].Throughput, 1e-9)
	// Label b: two requests between base+500 and base+2000ms.
	assert.InDelta(t, 2.0/1.5, summary.Labels[1].Throughput, 1e-9)
}

func TestAggregate_ThroughputNeedsEveryTimestamp(t *testing.T) {
	records := []Record{
		{Label: "a", Elapsed: 100, Success: true, Timestamp: 1_700_000_000_000},
		{Label: "a", Elapsed: 100, Success: true},
	}

	summary, err := Aggregate(records)
	require.NoError(t, err)
	assert.False(t, summary.HasThroughput)
	assert.Zero(t, summary.Overall.Throughput)
}

func TestSummary_Table(t *testing.T) {
	summary, err := Aggregate(sampleRecords())
	require.NoError(t, err)

	table := summary.Table()
	lines := nonEmptyLines(table)
	require.Len(t, lines, 3, "header plus one row per label:\n%s", table)

	for _, col := range TableHeader {
		assert.Contains(t, lines[0], col)
	}
	assert.Contains(t, lines[1], "Sampler1")
	assert.Contains(t, lines[1], "200.00")
	assert.Contains(t, lines[1], "300")
	assert.Contains(t, lines[2], "Sampler2")
}

func TestSummary_TableOneRowPerLabelRegardlessOfOrder(t *testing.T) {
	base := []Record{
		{Label: "alpha", Elapsed: 1, Success: true},
		{Label: "beta", Elapsed: 2, Success: true},
		{Label: "gamma", Elapsed: 3, Success: false},
		{Label: "alpha", Elapsed: 4, Success: true},
		{Label: "beta", Elapsed: 5, Success: true},
		{Label: "alpha beta", Elapsed: 6, Success: true},
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		records := append([]Record(nil), base...)
		rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })

		summary, err := Aggregate(records)
		require.NoError(t, err)

		lines := nonEmptyLines(summary.Table())
		require.Len(t, lines, 5, "trial %d", trial)

		for _, label := range []string{"alpha", "beta", "gamma", "alpha beta"} {
			rows := 0
			for _, line := range lines[1:] {
				if firstCell(line) == label {
					rows++
				}
			}
			assert.Equal(t, 1, rows, "label %q in trial %d", label, trial)
		}
	}
}

func TestSummary_DetailTable(t *testing.T) {
	summary, err := Aggregate(sampleRecords())
	require.NoError(t, err)

	lines := nonEmptyLines(summary.DetailTable())
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "p95")
	assert.Contains(t, lines[2], "100.00")
	assert.Contains(t, lines[1], "n/a")
}

func TestSummary_TableKeepsMultilineLabelOnOneRow(t *testing.T) {
	records, err := Load(writeLog(t, "label,elapsed,success\n\"Login\nstep\",120,true\nHome,80,true\n\"Cart\r\nview\",40,false\n"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Login\nstep", records[0].Label, "stored label is unchanged")

	summary, err := Aggregate(records)
	require.NoError(t, err)

	for name, table := range map[string]string{"table": summary.Table(), "detail": summary.DetailTable()} {
		lines := nonEmptyLines(table)
		require.Len(t, lines, 4, "%s: header plus one row per label:\n%s", name, table)
		assert.Contains(t, lines[1], `Login\nstep`, name)
		assert.Contains(t, lines[3], `Cart\nview`, name)
	}
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// firstCell returns the label cell of a rendered row. Numeric cells never
// contain spaces, so everything before the last four fields is the label.
func firstCell(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return fmt.Sprint(fields)
	}
	return strings.Join(fields[:len(fields)-4], " ")
}
