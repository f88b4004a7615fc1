//go:build !windows

package compressor

import (
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"
)

// swapFile atomically replaces dst with the contents of src. src is left for
// the caller to remove.
// The pending file is fsynced before the rename so a crash leaves either the
// old or the new dst, never neither.
func swapFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open compressed file: %w", err)
	}
	defer in.Close()

	pending, err := renameio.NewPendingFile(dst, renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := io.Copy(pending, in); err != nil {
		return fmt.Errorf("copy compressed data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace: %w", err)
	}
	return nil
}
