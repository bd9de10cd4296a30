package jtl

import (
	"errors"
	"math"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// ErrNoRecords is returned when statistics are requested over an empty
// record set. Mean and error rate are undefined there.
var ErrNoRecords = errors.New("no records to aggregate")

// Histogram range in microseconds: 1µs to 1 hour, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Stats holds the statistics of one group of records. Times are in
// milliseconds, the unit of the timing log.
type Stats struct {
	Count  int
	Errors int
	Mean   float64
	Max    float64
	Min    float64

	// Percentiles come from an HDR histogram and are accurate to three
	// significant figures.
	P90 float64
	P95 float64
	P99 float64

	// Throughput is requests per second between the first request start and
	// the last request end. Zero unless every record carried a timestamp.
	Throughput float64
}

// ErrorRate returns the percentage of failed records in the group.
func (s Stats) ErrorRate() (float64, error) {
	return ErrorRate(s.Errors, s.Count)
}

// LabelStats is the breakdown for one sampler label.
type LabelStats struct {
	Label string
	Stats
}

// Summary is the result of aggregating a timing log.
type Summary struct {
	// Overall is computed directly from every record, not derived from
	// the per-label groups.
	Overall Stats

	// ErrorRate is Overall.Errors / Overall.Count * 100.
	ErrorRate float64

	// Labels holds one entry per distinct label in first-occurrence order.
	Labels []LabelStats

	// HasThroughput reports whether throughput figures are meaningful.
	HasThroughput bool
}

// ErrorRate returns 100 * errors / total. It fails with ErrNoRecords when
// total is zero instead of dividing by zero.
func ErrorRate(errorCount, total int) (float64, error) {
	if total <= 0 {
		return 0, ErrNoRecords
	}
	return float64(errorCount) / float64(total) * 100, nil
}

// accumulator keeps running statistics for one group.
type accumulator struct {
	count   int
	errors  int
	sum     float64
	max     float64
	min     float64
	hist    *hdrhistogram.Histogram
	untimed int
	start   int64
	end     int64
}

func newAccumulator() *accumulator {
	return &accumulator{
		hist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		min:  math.Inf(1),
		max:  math.Inf(-1),
	}
}

func (a *accumulator) add(r Record) {
	a.count++
	if !r.Success {
		a.errors++
	}
	a.sum += r.Elapsed
	if r.Elapsed > a.max {
		a.max = r.Elapsed
	}
	if r.Elapsed < a.min {
		a.min = r.Elapsed
	}

	micros := int64(math.Round(r.Elapsed * 1000))
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}
	// Values are clamped into range above, so RecordValue cannot fail.
	_ = a.hist.RecordValue(micros)

	if r.Timestamp <= 0 {
		a.untimed++
		return
	}
	finish := r.Timestamp + int64(math.Ceil(r.Elapsed))
	if a.start == 0 || r.Timestamp < a.start {
		a.start = r.Timestamp
	}
	if finish > a.end {
		a.end = finish
	}
}

func (a *accumulator) timed() bool {
	return a.count > 0 && a.untimed == 0 && a.end > a.start
}

func (a *accumulator) stats() Stats {
	s := Stats{
		Count:  a.count,
		Errors: a.errors,
		Mean:   a.sum / float64(a.count),
		Max:    a.max,
		Min:    a.min,
		P90:    float64(a.hist.ValueAtQuantile(90)) / 1000,
		P95:    float64(a.hist.ValueAtQuantile(95)) / 1000,
		P99:    float64(a.hist.ValueAtQuantile(99)) / 1000,
	}
	if a.timed() {
		s.Throughput = float64(a.count) * 1000 / float64(a.end-a.start)
	}
	return s
}

// Aggregator accumulates records one at a time, so a log can be
// summarized while it is being read.
type Aggregator struct {
	overall *accumulator
	labels  map[string]*accumulator
	order   []string
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		overall: newAccumulator(),
		labels:  make(map[string]*accumulator),
	}
}

// Add folds one record into the running statistics.
func (a *Aggregator) Add(r Record) {
	a.overall.add(r)

	acc, ok := a.labels[r.Label]
	if !ok {
		acc = newAccumulator()
		a.labels[r.Label] = acc
		a.order = append(a.order, r.Label)
	}
	acc.add(r)
}

// Summary returns the statistics over every record added. It fails with
// ErrNoRecords when nothing was added.
func (a *Aggregator) Summary() (*Summary, error) {
	if a.overall.count == 0 {
		return nil, ErrNoRecords
	}

	rate, err := ErrorRate(a.overall.errors, a.overall.count)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Overall:       a.overall.stats(),
		ErrorRate:     rate,
		Labels:        make([]LabelStats, 0, len(a.order)),
		HasThroughput: a.overall.timed(),
	}
	for _, label := range a.order {
		summary.Labels = append(summary.Labels, LabelStats{
			Label: label,
			Stats: a.labels[label].stats(),
		})
	}

	return summary, nil
}

// Aggregate computes overall and per-label statistics for records.
func Aggregate(records []Record) (*Summary, error) {
	agg := NewAggregator()
	for _, r := range records {
		agg.Add(r)
	}
	return agg.Summary()
}
