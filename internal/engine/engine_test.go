package engine

import (
	"context"
	"testing"

	"pdf-compressor-go/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{"gswin64c", "gswin32c", "gs"}, Candidates("windows", ""))
	assert.Equal(t, []string{"gs"}, Candidates("linux", ""))
	assert.Equal(t, []string{"gs"}, Candidates("darwin", ""))
	assert.Equal(t, []string{"/opt/gs/bin/gs"}, Candidates("windows", " /opt/gs/bin/gs "))
}

func TestResolvePicksFirstWorkingCandidate(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineCopy)
	missing := testsupport.MissingEngine(t)

	h := Resolve(context.Background(), []string{missing, stub.Path})

	assert.True(t, h.Resolved)
	assert.Equal(t, stub.Path, h.Command)
	assert.Equal(t, "10.02.1", h.Version)
	assert.Zero(t, stub.Invocations(t), "version probes are not compression calls")
}

func TestResolveFallsBackToFirstCandidate(t *testing.T) {
	first := testsupport.MissingEngine(t)
	second := testsupport.MissingEngine(t) + "-2"

	h := Resolve(context.Background(), []string{first, second})

	assert.False(t, h.Resolved)
	assert.Equal(t, first, h.Command)
	assert.False(t, Check(context.Background(), h))
}

func TestResolveEmptyCandidates(t *testing.T) {
	h := Resolve(context.Background(), nil)
	assert.Equal(t, Handle{}, h)
	assert.False(t, Check(context.Background(), h))
}

func TestCheck(t *testing.T) {
	stub := testsupport.NewStubEngine(t, testsupport.EngineCopy)
	assert.True(t, Check(context.Background(), Handle{Command: stub.Path}))
}

func TestArgs(t *testing.T) {
	args := Args(QualityEbook, "/out/a.pdf", "/in/a.pdf")
	assert.Equal(t, []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/ebook",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dSAFER",
		"-sOutputFile=/out/a.pdf",
		"/in/a.pdf",
	}, args)
}

func TestParseQuality(t *testing.T) {
	for _, name := range QualityNames() {
		q, err := ParseQuality(name)
		require.NoError(t, err)
		assert.Equal(t, name, q.String())
		assert.Equal(t, "/"+name, q.Setting())
	}

	q, err := ParseQuality(" EBOOK ")
	require.NoError(t, err)
	assert.Equal(t, QualityEbook, q)

	_, err = ParseQuality("medium")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screen, ebook, printer, prepress, default")
}

func TestQualities(t *testing.T) {
	qs := Qualities()
	require.Len(t, qs, 5)
	assert.Equal(t, QualityScreen, qs[0].Name)
	assert.Equal(t, "72", QualityScreen.Describe().DPI)
	assert.Equal(t, "/prepress", QualityPrepress.Describe().Setting)

	qs[0].Name = "mutated"
	assert.Equal(t, QualityScreen, Qualities()[0].Name)
}
