package workflow

import (
	"errors"
	"fmt"

	"github.com/wesleyorama2/jtlens/internal/jtl"
)

// State is a position in the run lifecycle. A run only moves forward, one
// state at a time, or to StateFailed.
type State int

const (
	StateInit State = iota
	StateCleaned
	StateExecuted
	StateAggregated
	StateReported
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCleaned:
		return "cleaned"
	case StateExecuted:
		return "executed"
	case StateAggregated:
		return "aggregated"
	case StateReported:
		return "reported"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step names the part of the run an error came from.
type Step string

const (
	StepCleanup     Step = "cleanup"
	StepExecution   Step = "test execution"
	StepAggregation Step = "aggregation"
	StepReporting   Step = "reporting"
	StepAnalysis    Step = "analysis"
)

// StepError is returned by Run when a step fails. Err keeps the step's own
// error kind.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Exit statuses.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitMissingResults = 2
)

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var missing *jtl.MissingResultsError
	if errors.As(err, &missing) {
		return ExitMissingResults
	}
	return ExitFailure
}
