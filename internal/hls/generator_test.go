package hls

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMaster_FreeTierFiltersAbove192Kbps(t *testing.T) {
	playlist := string(GenerateMaster("song-1", []int{96, 128, 192, 320}, false))

	assert.Contains(t, playlist, "audio_96kbps/playlist.m3u8")
	assert.Contains(t, playlist, "audio_128kbps/playlist.m3u8")
	assert.Contains(t, playlist, "audio_192kbps/playlist.m3u8")
	assert.NotContains(t, playlist, "audio_320kbps/playlist.m3u8")
}

func TestGenerateMaster_PremiumIncludesAllQualities(t *testing.T) {
	playlist := string(GenerateMaster("song-1", []int{96, 128, 192, 320}, true))
	assert.Contains(t, playlist, "audio_320kbps/playlist.m3u8")
}

func TestGenerateMaster_OrderedAscendingRegardlessOfInputOrder(t *testing.T) {
	shuffled := GenerateMaster("song-1", []int{320, 96, 192, 128}, true)
	sorted := GenerateMaster("song-1", []int{96, 128, 192, 320}, true)
	assert.Equal(t, sorted, shuffled, "master playlist byte output must be permutation-independent of input order")
}

func TestGenerateMaster_IsDeterministic(t *testing.T) {
	a := GenerateMaster("song-1", []int{96, 128, 192}, true)
	b := GenerateMaster("song-1", []int{96, 128, 192}, true)
	assert.Equal(t, a, b)
}

func TestGenerateMaster_BandwidthIsKbpsTimesThousand(t *testing.T) {
	playlist := string(GenerateMaster("song-1", []int{128}, true))
	assert.Contains(t, playlist, "BANDWIDTH=128000")
	assert.Contains(t, playlist, `CODECS="mp4a.40.2"`)
}

func TestGenerateMedia_UnknownQualityReturnsNotFound(t *testing.T) {
	_, err := GenerateMedia("song-1", 500, []int{96, 128, 192}, 10, 6)
	require.Error(t, err)
	var notFound *ErrQualityNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestGenerateMedia_StructureAndEndList(t *testing.T) {
	playlist, err := GenerateMedia("song-1", 128, []int{96, 128, 192}, 5, 6)
	require.NoError(t, err)

	text := string(playlist)
	assert.True(t, strings.HasPrefix(text, "#EXTM3U\n"))
	assert.Contains(t, text, "#EXT-X-VERSION:3\n")
	assert.Contains(t, text, "#EXT-X-TARGETDURATION:6\n")
	assert.Contains(t, text, "#EXT-X-MEDIA-SEQUENCE:0\n")
	assert.Contains(t, text, "segment_00000.ts")
	assert.Contains(t, text, "segment_00004.ts")
	assert.True(t, strings.HasSuffix(text, "#EXT-X-ENDLIST\n"))
}

func TestGenerateMedia_DefaultsSegmentDurationWhenUnset(t *testing.T) {
	playlist, err := GenerateMedia("song-1", 128, []int{128}, 1, 0)
	require.NoError(t, err)
	assert.Contains(t, string(playlist), "#EXT-X-TARGETDURATION:6\n")
}
