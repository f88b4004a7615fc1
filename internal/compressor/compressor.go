package compressor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdf-compressor-go/internal/engine"
	"pdf-compressor-go/internal/sizes"
)

const (
	// DefaultTimeout bounds one engine invocation.
	DefaultTimeout = 300 * time.Second
	// DefaultMinOutputSize is the smallest temp output allowed to replace an original.
	DefaultMinOutputSize = 1024
	// TempSuffix is appended to an original's path while it is compressed in place.
	TempSuffix = ".tmp"
)

// Job is one unit of work: one input compressed to one destination.
type Job struct {
	Input     string         `json:"input"`
	Output    string         `json:"output,omitempty"`
	InPlace   bool           `json:"in_place"`
	Quality   engine.Quality `json:"quality"`
	Overwrite bool           `json:"overwrite"`
}

// ErrorKind classifies a per-file failure.
type ErrorKind string

const (
	KindInputNotFound             ErrorKind = "input_not_found"
	KindNotAPdf                   ErrorKind = "not_a_pdf"
	KindOutputExists              ErrorKind = "output_exists"
	KindOutputIsInput             ErrorKind = "output_is_input"
	KindEngineUnavailable         ErrorKind = "engine_unavailable"
	KindTimeout                   ErrorKind = "timeout"
	KindEngineExitError           ErrorKind = "engine_exit_error"
	KindEngineProducedEmptyOutput ErrorKind = "engine_produced_empty_output"
	KindOutputTooSmall            ErrorKind = "output_too_small"
	KindUnexpectedError           ErrorKind = "unexpected_error"
)

// Error is a classified per-file failure.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is a compressor Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Outcome is the result of exactly one Job.
type Outcome struct {
	FileName       string        `json:"file_name"`
	Input          string        `json:"input"`
	Output         string        `json:"output,omitempty"`
	Success        bool          `json:"success"`
	Err            *Error        `json:"error,omitempty"`
	OriginalSize   int64         `json:"original_size"`
	CompressedSize int64         `json:"compressed_size"`
	Ratio          float64       `json:"ratio"`
	Duration       time.Duration `json:"duration"`
}

// Kind returns the failure kind, or "" for a successful outcome.
func (o Outcome) Kind() ErrorKind {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind
}

// Reason returns the failure message, or "" for a successful outcome.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Message
}

func (o *Outcome) fail(err *Error) {
	o.Success = false
	o.Err = err
	o.CompressedSize = 0
	o.Ratio = 0
}

// Compressor runs compression jobs.
type Compressor interface {
	// Compress writes a compressed copy of job.Input to job.Output.
	Compress(ctx context.Context, job Job) Outcome
	// ReplaceInPlace compresses path and swaps the result over it.
	ReplaceInPlace(ctx context.Context, path string, quality engine.Quality) Outcome
	// Run dispatches job to ReplaceInPlace or Compress.
	Run(ctx context.Context, job Job) Outcome
}

// ReductionPolicy decides whether a compressed result is worth keeping over
// its original. The compressor itself never applies one.
type ReductionPolicy struct {
	MinPercent float64
}

// Accept reports whether the reduction from original to compressed meets the policy.
func (p ReductionPolicy) Accept(original, compressed int64) bool {
	if compressed <= 0 {
		return false
	}
	if p.MinPercent <= 0 {
		return true
	}
	return sizes.Ratio(original, compressed) >= p.MinPercent
}
