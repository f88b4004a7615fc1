// Package resizer scales a single image by a factor or to explicit bounds.
package resizer

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pdf-compressor-go/internal/logger"
	"pdf-compressor-go/internal/sizes"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultScale halves both dimensions.
const DefaultScale = 0.5

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"bilinear":   imaging.Linear,
	"hamming":    imaging.Hamming,
	"catmullrom": imaging.CatmullRom,
	"bicubic":    imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

// FilterNames lists accepted filter names, sorted.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFilter maps a filter name onto a resampling filter. Empty means nearest.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return imaging.NearestNeighbor, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown filter %q (valid: %s)", name, strings.Join(FilterNames(), ", "))
	}
	return f, nil
}

// Options control one resize. Width and Height, when set, take precedence
// over Scale; setting only one keeps the aspect ratio.
type Options struct {
	Scale   float64
	Width   int
	Height  int
	Filter  string
	Quality int // JPEG quality, 1-100
	Force   bool
}

// Result describes one resize.
type Result struct {
	Input          string        `json:"input"`
	Output         string        `json:"output"`
	OriginalSize   int64         `json:"original_size"`
	ResizedSize    int64         `json:"resized_size"`
	OriginalWidth  int           `json:"original_width"`
	OriginalHeight int           `json:"original_height"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	Skipped        bool          `json:"skipped"`
	Message        string        `json:"message,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// Resizer resizes one image at a time.
type Resizer struct {
	log   *logrus.Logger
	stamp bool
}

// New returns a Resizer. With stamp set, JPEG outputs get their EXIF copied
// and a Software mark written through exiftool when it is installed.
func New(log *logrus.Logger, stamp bool) *Resizer {
	if log == nil {
		log = logger.Discard()
	}
	return &Resizer{log: log, stamp: stamp}
}

// DefaultOutputPath returns "<dir>/<stem>_<pct>%<ext>" next to input.
func DefaultOutputPath(input string, scale float64) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)
	pct := int(math.Round(scale * 100))
	return filepath.Join(filepath.Dir(input), fmt.Sprintf("%s_%d%%%s", stem, pct, ext))
}

// Resize decodes input, scales it and writes output. An empty output picks
// DefaultOutputPath. JPEGs already carrying the resize mark are skipped unless
// opts.Force is set.
func (r *Resizer) Resize(ctx context.Context, input, output string, opts Options) (res Result, err error) {
	start := time.Now()
	res = Result{Input: input}
	defer func() { res.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	filter, err := ParseFilter(opts.Filter)
	if err != nil {
		return res, err
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	if opts.Width < 0 || opts.Height < 0 {
		return res, fmt.Errorf("invalid target size %dx%d", opts.Width, opts.Height)
	}
	if output == "" {
		output = DefaultOutputPath(input, opts.Scale)
	}
	res.Output = output

	info, err := os.Stat(input)
	if err != nil {
		return res, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return res, fmt.Errorf("input is a directory: %s", input)
	}
	res.OriginalSize = info.Size()

	if isJPEG(input) {
		software, err := softwareTag(input)
		entry := r.log.WithFields(logrus.Fields{"file": input, "software": software})
		switch {
		case err != nil:
			entry.Debugf("EXIF not readable: %v", err)
		case strings.Contains(software, Mark) && !opts.Force:
			res.Skipped = true
			res.Message = "already resized"
			entry.Info("Skipping image that already carries the resize mark")
			return res, nil
		case software != "":
			entry.Debugf("Resizing image written by %s", software)
		}
	}

	format, err := imaging.FormatFromFilename(output)
	if err != nil {
		return res, fmt.Errorf("unsupported output format: %w", err)
	}

	img, err := imaging.Open(input, imaging.AutoOrientation(true))
	if err != nil {
		return res, fmt.Errorf("open image: %w", err)
	}
	bounds := img.Bounds()
	res.OriginalWidth, res.OriginalHeight = bounds.Dx(), bounds.Dy()

	width, height := targetSize(res.OriginalWidth, res.OriginalHeight, opts)
	resized := imaging.Resize(img, width, height, filter)
	res.Width, res.Height = resized.Bounds().Dx(), resized.Bounds().Dy()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(opts.Quality)); err != nil {
		return res, fmt.Errorf("encode image: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return res, fmt.Errorf("create output directory: %w", err)
	}
	// exiftool picks the file type from the extension, so keep it last
	ext := filepath.Ext(output)
	tmpPath := strings.TrimSuffix(output, ext) + ".tmp" + ext
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return res, fmt.Errorf("write temp file: %w", err)
	}

	if r.stamp && format == imaging.JPEG && isJPEG(input) {
		if err := copyExifAndMark(input, tmpPath); err != nil {
			res.Message = fmt.Sprintf("warning: exif not copied/marked: %v", err)
			r.log.WithField("file", input).Warnf("EXIF not copied: %v", err)
		}
	}

	if err := os.Rename(tmpPath, output); err != nil {
		_ = os.Remove(tmpPath)
		return res, fmt.Errorf("rename temp file: %w", err)
	}
	res.ResizedSize = sizes.FileSize(output)

	r.log.WithFields(logrus.Fields{
		"file":          input,
		"output":        output,
		"original_size": res.OriginalSize,
		"resized_size":  res.ResizedSize,
	}).Infof("Resized %s from %dx%d to %dx%d", filepath.Base(input),
		res.OriginalWidth, res.OriginalHeight, res.Width, res.Height)
	return res, nil
}

// targetSize never returns a zero dimension.
func targetSize(w, h int, opts Options) (int, int) {
	switch {
	case opts.Width > 0 && opts.Height > 0:
		return opts.Width, opts.Height
	case opts.Width > 0:
		return opts.Width, max(1, int(math.Round(float64(h)*float64(opts.Width)/float64(w))))
	case opts.Height > 0:
		return max(1, int(math.Round(float64(w)*float64(opts.Height)/float64(h)))), opts.Height
	}
	return max(1, int(float64(w)*opts.Scale)), max(1, int(float64(h)*opts.Scale))
}

func isJPEG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}
