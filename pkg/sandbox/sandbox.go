// Package sandbox dispatches generated programs to an execution backend and parses
// the result envelope they print.
package sandbox

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "devready",
		Subsystem: "sandbox",
		Name:      "dispatch_duration_seconds",
		Help:      "Duration of program dispatches to the execution backend",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "language"})

	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devready",
		Subsystem: "sandbox",
		Name:      "dispatch_total",
		Help:      "Number of program dispatches by outcome",
	}, []string{"backend", "language", "outcome"})
)

// Dispatch outcomes recorded in metrics.
const (
	outcomeOK           = "ok"
	outcomeRejected     = "rejected"
	outcomeTransport    = "transport_error"
	outcomeServiceError = "service_error"
	outcomeDecodeError  = "decode_error"
	outcomeTimeout      = "timeout"
)

// ExecutionResult is the parsed outcome of one program run. A nil Output means the
// program produced no result value.
type ExecutionResult struct {
	Output interface{} `json:"output"`
	Stdout []string    `json:"stdout"`
	Stderr []string    `json:"stderr"`
}

// Dispatcher runs a generated program. Failures are reported inside the result
// rather than as errors.
type Dispatcher interface {
	Dispatch(ctx context.Context, language, program string) ExecutionResult
}

// Failure builds a result carrying a single stderr line.
func Failure(message string) ExecutionResult {
	return ExecutionResult{Stderr: []string{message}}
}

// Unsupported is the result reported for languages without a generator.
func Unsupported(language string) ExecutionResult {
	return Failure(fmt.Sprintf("Language '%s' is not supported yet", language))
}
