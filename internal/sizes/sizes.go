package sizes

import (
	"os"

	"github.com/dustin/go-humanize"
)

// FileSize returns the size of the file at path, or 0 if it cannot be stat'ed.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// Format returns a human-readable string for a byte count using binary units.
func Format(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// Ratio returns the percentage reduction from original to compressed.
// A zero original size yields 0. Growth yields a negative percentage.
func Ratio(original, compressed int64) float64 {
	if original == 0 {
		return 0
	}
	return float64(original-compressed) / float64(original) * 100
}

// Saved returns original-compressed, clamped at zero.
func Saved(original, compressed int64) int64 {
	if compressed >= original {
		return 0
	}
	return original - compressed
}
