package statistics

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"pdf-compressor-go/internal/compressor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(name string, orig, comp int64) compressor.Outcome {
	return compressor.Outcome{FileName: name, Success: true, OriginalSize: orig, CompressedSize: comp,
		Ratio: float64(orig-comp) / float64(orig) * 100}
}

func failed(name string, kind compressor.ErrorKind, msg string) compressor.Outcome {
	return compressor.Outcome{FileName: name, OriginalSize: 500, Err: &compressor.Error{Kind: kind, Message: msg}}
}

func TestBatchResultAdd(t *testing.T) {
	r := NewBatchResult()
	r.Add(ok("a.pdf", 1000, 400))
	r.Add(failed("bad.pdf", compressor.KindEngineExitError, "boom"))
	r.Add(ok("b.pdf", 3000, 1600))
	r.Finalize()

	assert.Equal(t, 2, r.Successful)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 3, r.Total())
	assert.Len(t, r.Outcomes, 3)
	assert.Equal(t, int64(4000), r.TotalOriginal, "failed outcomes do not count")
	assert.Equal(t, int64(2000), r.TotalCompressed)
	assert.Equal(t, int64(2000), r.SpaceSaved())
	assert.InDelta(t, 50.0, r.OverallRatio(), 1e-9)
	assert.False(t, r.OK())
	require.Len(t, r.Failures, 1)
	assert.Equal(t, Failure{FileName: "bad.pdf", Kind: compressor.KindEngineExitError, Error: "boom"}, r.Failures[0])
	assert.False(t, r.EndTime.Before(r.StartTime))
}

func TestEmptyBatchResult(t *testing.T) {
	r := NewBatchResult()
	assert.True(t, r.OK())
	assert.Zero(t, r.Total())
	assert.Zero(t, r.OverallRatio())
	assert.Equal(t, "No errors occurred during processing", r.GetErrorSummary())
}

func TestErrorSummaryIsCapped(t *testing.T) {
	r := NewBatchResult()
	for i := 0; i < 8; i++ {
		r.Add(failed(fmt.Sprintf("f%d.pdf", i), compressor.KindTimeout, "slow"))
	}

	lines, more := r.FailureLines(FailureDisplayLimit)
	assert.Len(t, lines, 5)
	assert.Equal(t, 3, more)
	assert.Equal(t, "f0.pdf: slow", lines[0])

	summary := r.GetErrorSummary()
	assert.Contains(t, summary, "8 files failed to compress")
	assert.Contains(t, summary, "... and 3 more failures")
	assert.NotContains(t, summary, "f5.pdf")
	assert.Len(t, r.Failures, 8, "full list retained")
}

func TestGetSummary(t *testing.T) {
	r := NewBatchResult()
	r.Workers = 4
	r.Add(ok("a.pdf", 2048, 1024))
	r.Finalize()

	summary := r.GetSummary()
	assert.Contains(t, summary, "1 successful, 0 failed")
	assert.Contains(t, summary, "50.0% reduction")
	assert.Contains(t, summary, "using 4 parallel workers")
	assert.NotContains(t, summary, "failed to compress")
}

func TestRenderTable(t *testing.T) {
	r := NewBatchResult()
	r.Add(ok("a.pdf", 2048, 1024))
	r.Add(failed("bad.pdf", compressor.KindNotAPdf, "nope"))

	var buf bytes.Buffer
	r.RenderTable(&buf)
	out := buf.String()
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "not_a_pdf")
	assert.Contains(t, strings.ToLower(out), "1 ok / 1 failed")
}

func TestCounterConcurrent(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Increment(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5000), c.Value())
}
