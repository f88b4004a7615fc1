package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// EngineBehavior selects what the stub engine does with a valid input.
type EngineBehavior string

const (
	// EngineCopy writes the input unchanged.
	EngineCopy EngineBehavior = "copy"
	// EngineHalf writes the first half of the input.
	EngineHalf EngineBehavior = "half"
	// EngineTiny writes 100 bytes.
	EngineTiny EngineBehavior = "tiny"
	// EngineEmpty creates a zero-length output.
	EngineEmpty EngineBehavior = "empty"
	// EngineFail exits non-zero with a diagnostic on stderr.
	EngineFail EngineBehavior = "fail"
	// EngineHang never finishes.
	EngineHang EngineBehavior = "hang"
)

// StubEngine is a shell script standing in for Ghostscript.
type StubEngine struct {
	Path string
	Log  string
}

// NewStubEngine writes an executable stub into a temp dir. Every compression
// call (not --version probes) appends its arguments to Log. Empty inputs are
// rejected with exit status 1, like a real engine failing to parse them.
func NewStubEngine(t testing.TB, behavior EngineBehavior) StubEngine {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub engine requires a POSIX shell")
	}

	dir := t.TempDir()
	stub := StubEngine{
		Path: filepath.Join(dir, "gs"),
		Log:  filepath.Join(dir, "invocations.log"),
	}

	var body string
	switch behavior {
	case EngineCopy:
		body = `cat "$in" > "$out"`
	case EngineHalf:
		body = `size=$(wc -c < "$in"); head -c $((size / 2)) "$in" > "$out"`
	case EngineTiny:
		body = `head -c 100 "$in" > "$out"`
	case EngineEmpty:
		body = `: > "$out"`
	case EngineFail:
		body = "echo \"Unrecoverable error, exit code 1\" >&2\nexit 3"
	case EngineHang:
		body = "exec sleep 30"
	default:
		t.Fatalf("unknown stub behavior %q", behavior)
	}

	script := strings.Join([]string{
		"#!/bin/sh",
		`if [ "$1" = "--version" ]; then`,
		`  echo "10.02.1"`,
		`  exit 0`,
		`fi`,
		fmt.Sprintf(`echo "$@" >> %q`, stub.Log),
		`out=""`,
		`in=""`,
		`for arg in "$@"; do`,
		`  case "$arg" in`,
		`    -sOutputFile=*) out="${arg#-sOutputFile=}" ;;`,
		`    -*) ;;`,
		`    *) in="$arg" ;;`,
		`  esac`,
		`done`,
		`if [ ! -s "$in" ]; then`,
		`  echo "Error: /syntaxerror in input file" >&2`,
		`  exit 1`,
		`fi`,
		body,
		"",
	}, "\n")

	if err := os.WriteFile(stub.Path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub engine: %v", err)
	}
	return stub
}

// Invocations returns the number of compression calls the stub received.
func (s StubEngine) Invocations(t testing.TB) int {
	t.Helper()
	data, err := os.ReadFile(s.Log)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("read stub log: %v", err)
	}
	return strings.Count(string(data), "\n")
}

// MissingEngine returns a command path that does not exist.
func MissingEngine(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "no-such-gs")
}
