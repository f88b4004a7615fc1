// Package batch discovers PDF files and compresses them on a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/engine"
	"pdf-compressor-go/internal/logger"
	"pdf-compressor-go/internal/metrics"
	"pdf-compressor-go/internal/progress"
	"pdf-compressor-go/internal/sizes"
	"pdf-compressor-go/internal/statistics"

	"github.com/sirupsen/logrus"
)

// JobRunner executes one job and always returns its outcome.
type JobRunner interface {
	Run(ctx context.Context, job compressor.Job) compressor.Outcome
}

// Request describes one batch invocation.
type Request struct {
	InputRoot string
	OutputDir string
	Quality   engine.Quality
	Overwrite bool
	Workers   int
	InPlace   bool
}

// Validate checks the request shape before touching the filesystem.
func (r Request) Validate() error {
	if r.InputRoot == "" {
		return errors.New("input directory is required")
	}
	if !r.Quality.Valid() {
		return fmt.Errorf("invalid quality %q", r.Quality)
	}
	if r.InPlace && r.OutputDir != "" {
		return errors.New("output directory cannot be combined with in-place mode")
	}
	if !r.InPlace && r.OutputDir == "" {
		return errors.New("output directory is required unless running in place")
	}
	if r.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", r.Workers)
	}
	return nil
}

// Options configures an Orchestrator.
type Options struct {
	MaxAutoWorkers int
	CPUCount       int
	Progress       progress.Reporter
	Metrics        *metrics.Metrics
}

// Orchestrator runs batches. One Orchestrator may run several batches in
// sequence; the completed counter spans all of them.
type Orchestrator struct {
	runner    JobRunner
	opts      Options
	log       *logrus.Logger
	completed statistics.Counter
}

// New returns an Orchestrator dispatching jobs to runner.
func New(runner JobRunner, opts Options, log *logrus.Logger) *Orchestrator {
	if opts.MaxAutoWorkers <= 0 {
		opts.MaxAutoWorkers = DefaultMaxAutoWorkers
	}
	if opts.CPUCount <= 0 {
		opts.CPUCount = runtime.NumCPU()
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{runner: runner, opts: opts, log: log}
}

// Completed returns the number of jobs finished so far. Safe to call while a
// batch is running.
func (o *Orchestrator) Completed() int64 {
	return o.completed.Value()
}

// Run compresses every PDF discovered under req.InputRoot. Per-file failures
// are recorded in the result; an error is returned only when the batch cannot
// start at all.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*statistics.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	info, err := os.Stat(req.InputRoot)
	if err != nil {
		return nil, fmt.Errorf("input directory does not exist: %s", req.InputRoot)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path is not a directory: %s", req.InputRoot)
	}

	if req.InPlace {
		o.log.Infof("In-place mode enabled, searching PDFs recursively in %s", req.InputRoot)
	}
	files, err := Discover(req.InputRoot, req.InPlace)
	if err != nil {
		return nil, err
	}

	result := statistics.NewBatchResult()
	if len(files) == 0 {
		o.log.Warnf("No PDF files found in %s", req.InputRoot)
		result.Finalize()
		return result, nil
	}

	if req.InPlace {
		lock, err := lockTree(req.InputRoot)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.release(); err != nil {
				o.log.Warnf("Could not release lock on %s: %v", req.InputRoot, err)
			}
		}()
	} else if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	workers := ChooseWorkerCount(req.Workers, o.opts.CPUCount, len(files), o.opts.MaxAutoWorkers)
	result.Workers = workers
	o.log.WithFields(logrus.Fields{
		"files":   len(files),
		"workers": workers,
		"quality": req.Quality.String(),
	}).Infof("Found %d PDF files to compress using %d parallel workers", len(files), workers)
	o.opts.Metrics.BatchStarted()

	o.aggregate(o.dispatch(ctx, buildJobs(req, files), workers), result, len(files))

	result.Finalize()
	o.logSummary(result)
	return result, nil
}

// dispatch starts the pool and returns the outcome channel, closed once every
// job has reported.
func (o *Orchestrator) dispatch(ctx context.Context, batchJobs []compressor.Job, workers int) <-chan compressor.Outcome {
	jobs := make(chan compressor.Job)
	results := make(chan compressor.Outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- o.runJob(ctx, job)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, job := range batchJobs {
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// aggregate consumes outcomes in completion order on the calling goroutine.
func (o *Orchestrator) aggregate(results <-chan compressor.Outcome, result *statistics.BatchResult, total int) {
	// Drain whatever is left on the way out so no worker stays blocked.
	defer func() {
		for range results {
		}
	}()

	o.opts.Progress.Start(total)
	defer o.opts.Progress.Finish()

	for outcome := range results {
		result.Add(outcome)
		o.opts.Metrics.ObserveOutcome(outcome)
		o.opts.Progress.Advance(outcome)
		if !outcome.Success {
			o.log.WithFields(logrus.Fields{
				"file": outcome.FileName,
				"kind": outcome.Kind(),
			}).Errorf("Failed to compress %s: %s", outcome.FileName, outcome.Reason())
		}
	}
}

func buildJobs(req Request, files []string) []compressor.Job {
	var outputs []string
	if !req.InPlace {
		outputs = OutputPaths(req.OutputDir, files)
	}
	jobs := make([]compressor.Job, len(files))
	for i, file := range files {
		jobs[i] = compressor.Job{
			Input:     file,
			InPlace:   req.InPlace,
			Quality:   req.Quality,
			Overwrite: req.Overwrite,
		}
		if outputs != nil {
			jobs[i].Output = outputs[i]
		}
	}
	return jobs
}

// runJob turns anything the runner does, including a panic, into exactly one outcome.
func (o *Orchestrator) runJob(ctx context.Context, job compressor.Job) (out compressor.Outcome) {
	name := filepath.Base(job.Input)
	o.opts.Metrics.JobStarted()
	defer func() {
		if r := recover(); r != nil {
			out = compressor.Outcome{
				FileName:     name,
				Input:        job.Input,
				Output:       job.Output,
				OriginalSize: sizes.FileSize(job.Input),
				Err: &compressor.Error{
					Kind:    compressor.KindUnexpectedError,
					Message: fmt.Sprintf("unexpected error processing %s: %v", name, r),
				},
			}
		}
		o.completed.Increment(1)
		o.opts.Metrics.JobDone()
	}()

	out = o.runner.Run(ctx, job)
	if out.FileName == "" {
		out.FileName = name
	}
	if out.Success && out.CompressedSize <= 0 {
		out.Success = false
		out.Err = &compressor.Error{
			Kind:    compressor.KindEngineProducedEmptyOutput,
			Message: "job reported success without output",
		}
	}
	return out
}

func (o *Orchestrator) logSummary(result *statistics.BatchResult) {
	o.log.Info("Parallel compression completed")
	entry := o.log.WithFields(logrus.Fields{
		"successful":       result.Successful,
		"failed":           result.Failed,
		"total_original":   result.TotalOriginal,
		"total_compressed": result.TotalCompressed,
		"workers":          result.Workers,
		"duration":         result.Duration.String(),
	})
	if result.Successful > 0 {
		entry.Infof("Batch results: %d successful, %d failed", result.Successful, result.Failed)
		entry.Infof("Space savings: %s (%.1f%% reduction)", sizes.Format(result.SpaceSaved()), result.OverallRatio())
		entry.Infof("Processed %d files using %d parallel workers", result.Total(), result.Workers)
	}
	if result.Failed > 0 {
		lines, more := result.FailureLines(statistics.FailureDisplayLimit)
		entry.Warnf("%d files failed to compress:", result.Failed)
		for _, line := range lines {
			o.log.Warnf("   - %s", line)
		}
		if more > 0 {
			o.log.Warnf("   ... and %d more failures", more)
		}
	}
}
