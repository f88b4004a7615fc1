package statistics

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/sizes"
)

// FailureDisplayLimit caps how many failures the summary lists.
const FailureDisplayLimit = 5

// Failure records one failed file.
type Failure struct {
	FileName string               `json:"file_name"`
	Kind     compressor.ErrorKind `json:"kind"`
	Error    string               `json:"error"`
}

// BatchResult aggregates the outcomes of one batch invocation. It is not safe
// for concurrent use; the orchestrator feeds it from a single goroutine.
type BatchResult struct {
	Successful      int                  `json:"successful"`
	Failed          int                  `json:"failed"`
	TotalOriginal   int64                `json:"total_original"`
	TotalCompressed int64                `json:"total_compressed"`
	Failures        []Failure            `json:"failures"`
	Outcomes        []compressor.Outcome `json:"outcomes"`
	Workers         int                  `json:"workers"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	Duration        time.Duration        `json:"duration"`
}

// NewBatchResult returns an empty result stamped with the current time.
func NewBatchResult() *BatchResult {
	return &BatchResult{
		StartTime: time.Now(),
		Failures:  make([]Failure, 0),
		Outcomes:  make([]compressor.Outcome, 0),
	}
}

// Add folds one outcome into the result. Byte totals count successful
// outcomes only.
func (r *BatchResult) Add(o compressor.Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Success {
		r.Successful++
		r.TotalOriginal += o.OriginalSize
		r.TotalCompressed += o.CompressedSize
		return
	}
	r.Failed++
	r.Failures = append(r.Failures, Failure{
		FileName: o.FileName,
		Kind:     o.Kind(),
		Error:    o.Reason(),
	})
}

// Finalize stamps the end time and duration.
func (r *BatchResult) Finalize() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Total returns the number of outcomes recorded.
func (r *BatchResult) Total() int {
	return r.Successful + r.Failed
}

// SpaceSaved returns the bytes saved across successful outcomes.
func (r *BatchResult) SpaceSaved() int64 {
	return sizes.Saved(r.TotalOriginal, r.TotalCompressed)
}

// OverallRatio returns the reduction percentage across successful outcomes.
func (r *BatchResult) OverallRatio() float64 {
	return sizes.Ratio(r.TotalOriginal, r.TotalCompressed)
}

// OK reports whether every outcome succeeded.
func (r *BatchResult) OK() bool {
	return r.Failed == 0
}

// FailureLines returns at most limit formatted failures plus the number omitted.
func (r *BatchResult) FailureLines(limit int) ([]string, int) {
	shown := min(limit, len(r.Failures))
	lines := make([]string, 0, shown)
	for _, f := range r.Failures[:shown] {
		lines = append(lines, fmt.Sprintf("%s: %s", f.FileName, f.Error))
	}
	return lines, len(r.Failures) - shown
}

// GetSummary returns a formatted summary of the batch.
func (r *BatchResult) GetSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch results: %d successful, %d failed\n", r.Successful, r.Failed)
	if r.Successful > 0 {
		fmt.Fprintf(&b, "Space savings: %s (%.1f%% reduction)\n", sizes.Format(r.SpaceSaved()), r.OverallRatio())
		fmt.Fprintf(&b, "Total size: %s -> %s\n", sizes.Format(r.TotalOriginal), sizes.Format(r.TotalCompressed))
	}
	fmt.Fprintf(&b, "Processed %d files using %d parallel workers in %v", r.Total(), r.Workers, r.Duration.Round(time.Millisecond))
	if r.Failed > 0 {
		b.WriteString("\n" + r.GetErrorSummary())
	}
	return b.String()
}

// GetErrorSummary returns the capped failure listing.
func (r *BatchResult) GetErrorSummary() string {
	if len(r.Failures) == 0 {
		return "No errors occurred during processing"
	}
	lines, more := r.FailureLines(FailureDisplayLimit)
	var b strings.Builder
	fmt.Fprintf(&b, "%d files failed to compress:\n", len(r.Failures))
	for _, line := range lines {
		fmt.Fprintf(&b, "  - %s\n", line)
	}
	if more > 0 {
		fmt.Fprintf(&b, "  ... and %d more failures\n", more)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Counter is a mutex-guarded counter shared between workers and readers.
type Counter struct {
	mu    sync.Mutex
	value int64
}

// Increment adds n to the counter.
func (c *Counter) Increment(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += n
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
