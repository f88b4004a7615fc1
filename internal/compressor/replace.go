package compressor

import (
	"context"
	"os"
	"path/filepath"

	"pdf-compressor-go/internal/engine"
	"pdf-compressor-go/internal/sizes"

	"github.com/sirupsen/logrus"
)

// ReplaceInPlace compresses path into a sibling temp file and, once the temp
// file passes the size check, swaps it over path. On any failure the original
// is left untouched and the temp file is removed.
func (c *DefaultCompressor) ReplaceInPlace(ctx context.Context, path string, quality engine.Quality) Outcome {
	tmp := path + TempSuffix
	out := c.Compress(ctx, Job{Input: path, Output: tmp, Quality: quality, Overwrite: true})
	out.Output = path
	entry := c.log.WithFields(logrus.Fields{"file": path, "operation": "replace_in_place"})

	if !out.Success {
		c.removeTemp(tmp)
		return out
	}

	if out.CompressedSize <= c.opts.MinOutputSize {
		out.fail(newError(KindOutputTooSmall, "compressed file too small (%d bytes), likely an engine error", out.CompressedSize))
		entry.WithField("kind", out.Kind()).Error(out.Reason())
		c.removeTemp(tmp)
		return out
	}

	if err := swapFile(tmp, path); err != nil {
		out.fail(newError(KindUnexpectedError, "failed to replace original file: %v", err))
		entry.WithField("kind", out.Kind()).Error(out.Reason())
		c.removeTemp(tmp)
		return out
	}

	c.removeTemp(tmp)
	out.CompressedSize = sizes.FileSize(path)
	out.Ratio = sizes.Ratio(out.OriginalSize, out.CompressedSize)
	entry.Infof("Replaced %s with compressed version", filepath.Base(path))
	return out
}

func (c *DefaultCompressor) removeTemp(tmp string) {
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		c.log.WithField("file", tmp).Warnf("Could not remove temporary file: %v", err)
	}
}
