// Package engine locates the Ghostscript binary and builds its command line.
package engine

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// ProbeTimeout bounds a single --version query.
const ProbeTimeout = 10 * time.Second

// Handle identifies the engine command for one run. It is resolved once and
// passed to every job; nothing in this package caches it.
type Handle struct {
	Command  string `json:"command"`
	Resolved bool   `json:"resolved"`
	Version  string `json:"version,omitempty"`
}

// Candidates returns the ordered executable names to try for goos.
// A non-empty override replaces the platform list.
func Candidates(goos, override string) []string {
	if cmd := strings.TrimSpace(override); cmd != "" {
		return []string{cmd}
	}
	if goos == "windows" {
		return []string{"gswin64c", "gswin32c", "gs"}
	}
	return []string{"gs"}
}

// DefaultCandidates returns Candidates for the running platform.
func DefaultCandidates(override string) []string {
	return Candidates(runtime.GOOS, override)
}

// Resolve returns the first candidate that answers a version query with a zero
// exit status. When none do, it returns the first candidate unresolved so the
// caller still has a command name; use Check before relying on it.
func Resolve(ctx context.Context, candidates []string) Handle {
	for _, cmd := range candidates {
		if version, ok := probe(ctx, cmd); ok {
			return Handle{Command: cmd, Resolved: true, Version: version}
		}
	}
	if len(candidates) == 0 {
		return Handle{}
	}
	return Handle{Command: candidates[0]}
}

// Check reports whether the handle's command is currently invocable.
func Check(ctx context.Context, h Handle) bool {
	if h.Command == "" {
		return false
	}
	_, ok := probe(ctx, h.Command)
	return ok
}

func probe(ctx context.Context, cmd string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	var stdout bytes.Buffer
	c := exec.CommandContext(ctx, cmd, "--version")
	c.Stdout = &stdout
	c.Stderr = io.Discard
	if err := c.Run(); err != nil {
		return "", false
	}
	return strings.TrimSpace(stdout.String()), true
}

// Args returns the engine arguments that compress input into output.
func Args(q Quality, output, input string) []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=" + q.Setting(),
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dSAFER",
		"-sOutputFile=" + output,
		input,
	}
}
