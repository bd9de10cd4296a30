package jtl

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TableHeader names the columns of the per-label breakdown.
var TableHeader = []string{"label", "requests", "avg", "max", "min"}

// DetailHeader names the columns of the extended per-label breakdown.
var DetailHeader = []string{"label", "errors", "error %", "p90", "p95", "p99", "throughput/s"}

// Table renders the per-label breakdown as aligned plain text: a header row
// and exactly one row per label, in the order of s.Labels.
func (s *Summary) Table() string {
	rows := make([][]string, 0, len(s.Labels))
	for _, l := range s.Labels {
		rows = append(rows, []string{
			labelCell(l.Label),
			strconv.Itoa(l.Count),
			fmt.Sprintf("%.2f", l.Mean),
			formatMillis(l.Max),
			formatMillis(l.Min),
		})
	}
	return renderTable(TableHeader, rows)
}

// DetailTable renders error counts, percentiles and throughput per label.
// The throughput column reads "n/a" when the log had no usable timestamps.
func (s *Summary) DetailTable() string {
	rows := make([][]string, 0, len(s.Labels))
	for _, l := range s.Labels {
		rate, _ := l.ErrorRate()
		throughput := "n/a"
		if s.HasThroughput {
			throughput = fmt.Sprintf("%.2f", l.Throughput)
		}
		rows = append(rows, []string{
			labelCell(l.Label),
			strconv.Itoa(l.Errors),
			fmt.Sprintf("%.2f", rate),
			formatMillis(l.P90),
			formatMillis(l.P95),
			formatMillis(l.P99),
			throughput,
		})
	}
	return renderTable(DetailHeader, rows)
}

// labelEscaper keeps a label on one table line. Quoted JTL fields may
// contain line breaks, which tablewriter would split into extra lines.
var labelEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`)

func labelCell(label string) string {
	return labelEscaper.Replace(label)
}

// formatMillis prints a millisecond value without inventing precision the
// log did not have: integral values stay integral.
func formatMillis(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderTable(header []string, rows [][]string) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAutoMergeCells(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetRowLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()

	return buf.String()
}
