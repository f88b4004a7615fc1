//go:build windows

package compressor

import "os"

// swapFile replaces dst with src. os.Rename uses MoveFileEx with
// MOVEFILE_REPLACE_EXISTING, so dst is never deleted first.
func swapFile(src, dst string) error {
	return os.Rename(src, dst)
}
