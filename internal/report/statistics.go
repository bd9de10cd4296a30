package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// StatisticsFile is the summary JMeter writes into the dashboard directory.
const StatisticsFile = "statistics.json"

// totalKey is the entry JMeter uses for the all-samplers row.
const totalKey = "Total"

// TransactionStats is one row of the dashboard's statistics table.
type TransactionStats struct {
	Transaction          string
	SampleCount          int64
	ErrorCount           int64
	ErrorPct             float64
	MeanResTime          float64
	MinResTime           float64
	MaxResTime           float64
	Throughput           float64
	ReceivedKBytesPerSec float64
	SentKBytesPerSec     float64
}

// Dashboard holds the statistics JMeter computed for its HTML report.
type Dashboard struct {
	Total        TransactionStats
	Transactions map[string]TransactionStats
}

// ReadStatistics parses statistics.json from a report directory. The error
// wraps os.ErrNotExist when JMeter did not write the file.
func ReadStatistics(dir string) (*Dashboard, error) {
	path := filepath.Join(dir, StatisticsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard statistics: %w", err)
	}

	return ParseStatistics(data)
}

// ParseStatistics decodes the contents of statistics.json.
func ParseStatistics(data []byte) (*Dashboard, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("dashboard statistics are not valid JSON")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("dashboard statistics must be a JSON object")
	}

	dash := &Dashboard{Transactions: make(map[string]TransactionStats)}
	foundTotal := false

	doc.ForEach(func(key, value gjson.Result) bool {
		stats := transactionFromJSON(value)
		if stats.Transaction == "" {
			stats.Transaction = key.String()
		}
		if key.String() == totalKey {
			dash.Total = stats
			foundTotal = true
			return true
		}
		dash.Transactions[key.String()] = stats
		return true
	})

	if !foundTotal {
		return nil, fmt.Errorf("dashboard statistics have no %q entry", totalKey)
	}

	return dash, nil
}

func transactionFromJSON(v gjson.Result) TransactionStats {
	return TransactionStats{
		Transaction:          v.Get("transaction").String(),
		SampleCount:          v.Get("sampleCount").Int(),
		ErrorCount:           v.Get("errorCount").Int(),
		ErrorPct:             v.Get("errorPct").Float(),
		MeanResTime:          v.Get("meanResTime").Float(),
		MinResTime:           v.Get("minResTime").Float(),
		MaxResTime:           v.Get("maxResTime").Float(),
		Throughput:           v.Get("throughput").Float(),
		ReceivedKBytesPerSec: v.Get("receivedKBytesPerSec").Float(),
		SentKBytesPerSec:     v.Get("sentKBytesPerSec").Float(),
	}
}
