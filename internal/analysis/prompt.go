// Package analysis turns aggregated load-test statistics into a prompt and
// asks a chat-completion model to interpret them.
package analysis

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/jtlens/internal/jtl"
)

// SystemPrompt is the fixed role message sent with every analysis request.
const SystemPrompt = "You are a performance testing expert."

// Questions are asked about every run, in this order.
var Questions = []string{
	"Which samplers are the slowest or most error-prone?",
	"Do these results indicate any performance bottlenecks?",
	"What optimizations or fixes would you suggest?",
	"What is the average throughput of each request?",
	"Provide the minimum and maximum response time recorded.",
	"Predict the probable choke point by analyzing the result.",
	"Predict the number of users the system can handle safely.",
}

// BuildPrompt renders the user message for a summary: the overall
// statistics, the per-label breakdown and the fixed questions.
func BuildPrompt(s *jtl.Summary) string {
	var b strings.Builder

	b.WriteString("You are a performance testing expert. Here is a summary of an entire JMeter test run:\n\n")

	b.WriteString("Test Summary:\n")
	fmt.Fprintf(&b, "- Total Requests: %d\n", s.Overall.Count)
	fmt.Fprintf(&b, "- Avg Response Time: %.2f ms\n", s.Overall.Mean)
	fmt.Fprintf(&b, "- Max Response Time: %.2f ms\n", s.Overall.Max)
	fmt.Fprintf(&b, "- Min Response Time: %.2f ms\n", s.Overall.Min)
	fmt.Fprintf(&b, "- 95th Percentile Response Time: %.2f ms\n", s.Overall.P95)
	fmt.Fprintf(&b, "- Error Count: %d\n", s.Overall.Errors)
	fmt.Fprintf(&b, "- Error Rate: %.2f%%\n", s.ErrorRate)
	if s.HasThroughput {
		fmt.Fprintf(&b, "- Throughput: %.2f requests/second\n", s.Overall.Throughput)
	}

	b.WriteString("\nBreakdown by sampler (label):\n")
	b.WriteString(s.Table())

	b.WriteString("\nErrors, percentiles (ms) and throughput by sampler (label):\n")
	b.WriteString(s.DetailTable())

	b.WriteString("\nQuestions:\n")
	for i, q := range Questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}

	return b.String()
}
