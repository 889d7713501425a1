package hls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistManifest_WritesReadableFile(t *testing.T) {
	dir := t.TempDir()
	body := GenerateMaster("song-1", []int{96, 128}, true)

	require.NoError(t, PersistManifest(dir, "master.m3u8", body))

	got, err := os.ReadFile(filepath.Join(dir, "master.m3u8"))
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestPersistManifest_OverwritesExistingFileAtomically(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, PersistManifest(dir, "master.m3u8", []byte("old")))
	require.NoError(t, PersistManifest(dir, "master.m3u8", []byte("new")))

	got, err := os.ReadFile(filepath.Join(dir, "master.m3u8"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
