package resizer

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestResizeHalvesByDefault(t *testing.T) {
	input := writeImage(t, "trabalhador.jpg", 400, 300)

	res, err := New(nil, false).Resize(context.Background(), input, "", Options{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(input), "trabalhador_50%.jpg"), res.Output)
	assert.Equal(t, 400, res.OriginalWidth)
	assert.Equal(t, 300, res.OriginalHeight)
	assert.Equal(t, 200, res.Width)
	assert.Equal(t, 150, res.Height)
	assert.Positive(t, res.OriginalSize)
	assert.Positive(t, res.ResizedSize)
	assert.False(t, res.Skipped)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), "trabalhador_50%.tmp.jpg"))

	out, err := imaging.Open(res.Output)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Bounds().Dx())
}

func TestResizeExplicitBounds(t *testing.T) {
	input := writeImage(t, "scan.png", 300, 200)
	dir := t.TempDir()

	tests := []struct {
		name          string
		opts          Options
		width, height int
	}{
		{"width keeps aspect", Options{Width: 150, Filter: "lanczos"}, 150, 100},
		{"height keeps aspect", Options{Height: 50, Filter: "bicubic"}, 75, 50},
		{"both", Options{Width: 10, Height: 90, Filter: "box"}, 10, 90},
		{"tiny scale clamps to one pixel", Options{Scale: 0.001}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, tt.name+".png")
			res, err := New(nil, false).Resize(context.Background(), input, output, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.width, res.Width)
			assert.Equal(t, tt.height, res.Height)
			assert.FileExists(t, output)
		})
	}
}

func TestResizeErrors(t *testing.T) {
	input := writeImage(t, "a.jpg", 20, 20)
	r := New(nil, false)

	_, err := r.Resize(context.Background(), input, "", Options{Filter: "sharpest"})
	assert.ErrorContains(t, err, "unknown filter")

	_, err = r.Resize(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"), "", Options{})
	assert.ErrorContains(t, err, "stat input")

	_, err = r.Resize(context.Background(), input, filepath.Join(t.TempDir(), "out.xyz"), Options{})
	assert.ErrorContains(t, err, "unsupported output format")

	_, err = r.Resize(context.Background(), input, "", Options{Width: -1})
	assert.ErrorContains(t, err, "invalid target size")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Resize(ctx, input, "", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnmarkedJPEGIsNotSkipped(t *testing.T) {
	input := writeImage(t, "plain.jpg", 10, 10)
	software, err := softwareTag(input)
	require.NoError(t, err)
	assert.Empty(t, software)

	_, err = softwareTag(filepath.Join(t.TempDir(), "none.jpg"))
	assert.Error(t, err)

	res, err := New(nil, false).Resize(context.Background(), input, "", Options{})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.InDelta(t, imaging.NearestNeighbor.Support, f.Support, 1e-9)

	f, err = ParseFilter("LANCZOS")
	require.NoError(t, err)
	assert.InDelta(t, imaging.Lanczos.Support, f.Support, 1e-9)

	assert.Contains(t, FilterNames(), "hamming")
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("imgs", "photo_25%.png"), DefaultOutputPath(filepath.Join("imgs", "photo.png"), 0.25))
}
