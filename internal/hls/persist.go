package hls

import (
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// PersistManifest atomically writes a generated playlist to disk under
// dir, keyed by filename, so a crash mid-write never leaves a torn file
// for a concurrent reader to observe.
func PersistManifest(dir, filename string, body []byte) error {
	path := filepath.Join(dir, filename)

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("hls: create pending manifest file: %w", err)
	}
	defer pendingFile.Cleanup()

	if _, err := pendingFile.Write(body); err != nil {
		return fmt.Errorf("hls: write manifest: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("hls: atomically replace manifest file: %w", err)
	}
	return nil
}
