package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdf-compressor-go/internal/sizes"
	"pdf-compressor-go/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig points the engine at command and keeps logs out of the
// working directory.
func writeTestConfig(t *testing.T, command string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
engine:
  command: %q
performance:
  show_progress: false
logging:
  console: false
  file_path: %q
`, command, filepath.Join(dir, "logs", "test.log"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCompressDirectory(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	testsupport.WritePDF(t, filepath.Join(in, "a.pdf"), 8192)
	testsupport.WritePDF(t, filepath.Join(in, "b.PDF"), 8192)

	stdout, _, err := execute(t, "", "--config", cfg, "-i", in, "-o", out, "-q", "ebook", "--table")
	require.NoError(t, err)

	assert.Equal(t, int64(4096), sizes.FileSize(filepath.Join(out, "a_compress.pdf")))
	assert.Equal(t, int64(4096), sizes.FileSize(filepath.Join(out, "b_compress.pdf")))
	assert.Contains(t, stdout, "a.pdf")
	assert.Equal(t, 2, stub.Invocations(t))

	log, err := os.ReadFile(stub.Log)
	require.NoError(t, err)
	assert.Contains(t, string(log), "-dPDFSETTINGS=/ebook")
}

func TestCompressDirectoryWithFailures(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	in := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(in, "good.pdf"), 8192)
	testsupport.WriteFile(t, filepath.Join(in, "bad.pdf"), 0)

	_, _, err := execute(t, "", "--config", cfg, "-i", in, "-o", t.TempDir())
	assert.ErrorIs(t, err, errFailures)
}

func TestCompressEmptyDirectory(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	in := t.TempDir()
	stdout, _, err := execute(t, "", "--config", cfg, "-i", in, "-o", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No PDF files found")
}

func TestCompressMissingInput(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	_, _, err := execute(t, "", "--config", cfg, "-i", filepath.Join(t.TempDir(), "nope"), "-o", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input directory does not exist")
}

func TestCompressInvalidQuality(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	_, _, err := execute(t, "", "--config", cfg, "-i", t.TempDir(), "-q", "ultra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quality")
	assert.Zero(t, stub.Invocations(t))
}

func TestOutputAndInPlaceAreExclusive(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	_, _, err := execute(t, "", "--config", cfg, "-i", t.TempDir(), "-o", t.TempDir(), "--in-place")
	require.Error(t, err)
	assert.Zero(t, stub.Invocations(t))
}

func TestCompressSingleFile(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	dir := t.TempDir()
	input := filepath.Join(dir, "report.pdf")
	output := filepath.Join(dir, "small.pdf")
	testsupport.WritePDF(t, input, 8192)

	stdout, _, err := execute(t, "", "--config", cfg, "-f", input, "-o", output)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), sizes.FileSize(output))
	assert.Equal(t, int64(8192), sizes.FileSize(input))
	assert.Contains(t, stdout, "50.0% reduction")
}

func TestCompressSingleFileIntoDirectory(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	input := filepath.Join(t.TempDir(), "report.pdf")
	out := filepath.Join(t.TempDir(), "out")
	testsupport.WritePDF(t, input, 8192)

	_, _, err := execute(t, "", "--config", cfg, "-f", input, "-o", out, "-q", "screen")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), sizes.FileSize(filepath.Join(out, "report_screen.pdf")))
}

func TestCompressSingleFileOntoItselfKeepsOriginal(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	input := filepath.Join(t.TempDir(), "report.pdf")
	testsupport.WritePDF(t, input, 8192)

	_, stderr, err := execute(t, "", "--config", cfg, "-f", input, "-o", input, "--overwrite")
	assert.ErrorIs(t, err, errFailures)
	assert.Contains(t, stderr, "output path is the input file")
	assert.Equal(t, int64(8192), sizes.FileSize(input))
	assert.Zero(t, stub.Invocations(t))
}

func TestCompressSingleFileInPlace(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	input := filepath.Join(t.TempDir(), "report.pdf")
	testsupport.WritePDF(t, input, 8192)

	_, _, err := execute(t, "", "--config", cfg, "-f", input, "--in-place")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), sizes.FileSize(input))
}

func TestCompressSingleFileFailureKeepsOriginal(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineFail)
	cfg := writeTestConfig(t, stub.Path)

	input := filepath.Join(t.TempDir(), "report.pdf")
	testsupport.WritePDF(t, input, 8192)

	_, stderr, err := execute(t, "", "--config", cfg, "-f", input, "--in-place")
	assert.ErrorIs(t, err, errFailures)
	assert.Contains(t, stderr, "report.pdf")
	assert.Equal(t, int64(8192), sizes.FileSize(input))
}

func TestQuietSuppressesOutput(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	in := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(in, "a.pdf"), 8192)

	stdout, _, err := execute(t, "", "--config", cfg, "--quiet", "-i", in, "-o", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestQualitiesCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "qualities")
	require.NoError(t, err)
	for _, name := range []string{"screen", "ebook", "printer", "prepress", "default"} {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "/prepress")
}

func TestCheckCommand(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)

	stdout, _, err := execute(t, "", "--config", writeTestConfig(t, stub.Path), "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "10.02.1")

	_, _, err = execute(t, "", "--config", writeTestConfig(t, testsupport.MissingEngine(t)), "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghostscript not found")
}

func TestInteractiveCommand(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	root := t.TempDir()
	top := filepath.Join(root, "top.pdf")
	nested := filepath.Join(root, "sub", "nested.pdf")
	testsupport.WritePDF(t, top, 8192)
	testsupport.WritePDF(t, nested, 8192)

	missing := filepath.Join(root, "missing")
	stdin := fmt.Sprintf("%s\n\"%s\"\nsim\n", missing, root)
	stdout, _, err := execute(t, stdin, "--config", cfg, "interactive")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Folder not found")
	assert.Equal(t, int64(4096), sizes.FileSize(top))
	assert.Equal(t, int64(4096), sizes.FileSize(nested))

	log, err := os.ReadFile(stub.Log)
	require.NoError(t, err)
	assert.Contains(t, string(log), "-dPDFSETTINGS=/prepress")
}

func TestInteractiveCommandCancelled(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)
	cfg := writeTestConfig(t, stub.Path)

	root := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(root, "a.pdf"), 8192)

	stdout, _, err := execute(t, root+"\nn\n", "--config", cfg, "interactive")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Operation cancelled.")
	assert.Zero(t, stub.Invocations(t))
}

func TestInteractiveCommandNoInput(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineHalf)

	_, _, err := execute(t, "", "--config", writeTestConfig(t, stub.Path), "interactive")
	require.Error(t, err)
}

func TestConfirmed(t *testing.T) {
	for _, answer := range []string{"y", "YES", " s ", "Sim"} {
		assert.True(t, confirmed(answer), answer)
	}
	for _, answer := range []string{"", "n", "no", "maybe"} {
		assert.False(t, confirmed(answer), answer)
	}
}
