package compressor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pdf-compressor-go/internal/engine"
	"pdf-compressor-go/internal/logger"
	"pdf-compressor-go/internal/sizes"

	"github.com/sirupsen/logrus"
)

// waitDelay bounds how long Wait blocks on the engine's pipes after a kill.
const waitDelay = 5 * time.Second

// Options tunes DefaultCompressor.
type Options struct {
	Timeout       time.Duration
	ProbeEachJob  bool
	MinOutputSize int64
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		Timeout:       DefaultTimeout,
		ProbeEachJob:  true,
		MinOutputSize: DefaultMinOutputSize,
	}
}

// DefaultCompressor runs Ghostscript once per job.
type DefaultCompressor struct {
	handle engine.Handle
	opts   Options
	log    *logrus.Logger
}

// NewDefaultCompressor creates a compressor bound to one resolved engine handle.
// Zero Timeout and MinOutputSize take the defaults.
func NewDefaultCompressor(handle engine.Handle, opts Options, log *logrus.Logger) *DefaultCompressor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinOutputSize <= 0 {
		opts.MinOutputSize = DefaultMinOutputSize
	}
	if log == nil {
		log = logger.Discard()
	}
	return &DefaultCompressor{handle: handle, opts: opts, log: log}
}

// Handle returns the engine handle the compressor was built with.
func (c *DefaultCompressor) Handle() engine.Handle {
	return c.handle
}

// Run dispatches job according to its in-place flag.
func (c *DefaultCompressor) Run(ctx context.Context, job Job) Outcome {
	if job.InPlace {
		return c.ReplaceInPlace(ctx, job.Input, job.Quality)
	}
	return c.Compress(ctx, job)
}

// Compress validates job, runs the engine and checks its output.
// Preconditions are checked in order and the first failure is returned
// without running anything.
func (c *DefaultCompressor) Compress(ctx context.Context, job Job) (out Outcome) {
	start := time.Now()
	out = Outcome{
		FileName: filepath.Base(job.Input),
		Input:    job.Input,
		Output:   job.Output,
	}
	entry := c.log.WithFields(logrus.Fields{
		"file":    job.Input,
		"output":  job.Output,
		"quality": job.Quality.String(),
	})
	defer func() {
		out.Duration = time.Since(start)
		if !out.Success {
			entry.WithField("kind", out.Kind()).Error(out.Reason())
		}
	}()

	info, err := os.Stat(job.Input)
	if err != nil || info.IsDir() {
		out.fail(newError(KindInputNotFound, "input file does not exist: %s", job.Input))
		return out
	}
	out.OriginalSize = info.Size()
	if !strings.EqualFold(filepath.Ext(job.Input), ".pdf") {
		out.fail(newError(KindNotAPdf, "input file is not a PDF: %s", job.Input))
		return out
	}
	if !job.Overwrite {
		if _, err := os.Stat(job.Output); err == nil {
			out.fail(newError(KindOutputExists, "output file already exists and overwrite is off: %s", job.Output))
			return out
		}
	}
	if samePath(job.Input, job.Output) {
		out.fail(newError(KindOutputIsInput, "output path is the input file: %s", job.Output))
		return out
	}
	if err := ctx.Err(); err != nil {
		out.fail(newError(KindUnexpectedError, "compression of %s cancelled: %v", out.FileName, err))
		return out
	}
	if !c.engineAvailable(ctx) {
		out.fail(newError(KindEngineUnavailable, "ghostscript not found; install it and make sure %q is in PATH", c.handle.Command))
		return out
	}

	if err := os.MkdirAll(filepath.Dir(job.Output), 0755); err != nil {
		out.fail(newError(KindUnexpectedError, "create output directory: %v", err))
		return out
	}

	entry.Infof("Compressing %s with quality '%s'", out.FileName, job.Quality)

	if failure := c.runEngine(ctx, job); failure != nil {
		out.fail(failure)
		return out
	}

	compressed := sizes.FileSize(job.Output)
	if compressed == 0 {
		out.fail(newError(KindEngineProducedEmptyOutput, "compression failed, output file is missing or empty"))
		return out
	}

	out.Success = true
	out.CompressedSize = compressed
	out.Ratio = sizes.Ratio(out.OriginalSize, compressed)
	entry.WithFields(logrus.Fields{
		"original_size":   out.OriginalSize,
		"compressed_size": compressed,
		"ratio":           out.Ratio,
	}).Infof("%s -> %s (%s -> %s, %.1f%% reduction)",
		out.FileName, filepath.Base(job.Output),
		sizes.Format(out.OriginalSize), sizes.Format(compressed), out.Ratio)
	return out
}

// samePath reports whether output names the input file, lexically or through
// a link to it.
func samePath(input, output string) bool {
	in, err1 := filepath.Abs(input)
	out, err2 := filepath.Abs(output)
	if err1 == nil && err2 == nil && in == out {
		return true
	}
	inInfo, err := os.Stat(input)
	if err != nil {
		return false
	}
	outInfo, err := os.Stat(output)
	return err == nil && os.SameFile(inInfo, outInfo)
}

func (c *DefaultCompressor) engineAvailable(ctx context.Context) bool {
	if c.opts.ProbeEachJob {
		return engine.Check(ctx, c.handle)
	}
	return c.handle.Resolved
}

// runEngine invokes the engine under the job timeout. The process is killed
// when the deadline passes.
func (c *DefaultCompressor) runEngine(ctx context.Context, job Job) *Error {
	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.handle.Command, engine.Args(job.Quality, job.Output, job.Input)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return newError(KindTimeout, "compression timeout for %s after %v", filepath.Base(job.Input), c.opts.Timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return newError(KindEngineExitError, "ghostscript error for %s (exit status %d): %s",
			filepath.Base(job.Input), exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}
	return newError(KindUnexpectedError, "unexpected error compressing %s: %v", filepath.Base(job.Input), err)
}
