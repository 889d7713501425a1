package hls

import (
	"bytes"
	"fmt"
)

// GenerateMaster returns a master playlist listing one media playlist per
// quality in availableQualities, ordered ascending by bitrate. When
// isPremium is false, qualities above FreeTierMaxKbps are excluded.
//
// Pure and deterministic: the same (songID, qualities, isPremium) always
// produces byte-identical output, regardless of the input slice's order.
func GenerateMaster(songID string, availableQualities []int, isPremium bool) []byte {
	sorted := sortedAscending(availableQualities)

	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	buf.WriteString(fmt.Sprintf("#EXT-X-VERSION:%d\n", playlistVersion))

	for _, kbps := range sorted {
		if !isPremium && kbps > FreeTierMaxKbps {
			continue
		}
		bandwidth := kbps * 1000
		fmt.Fprintf(buf, `#EXT-X-STREAM-INF:BANDWIDTH=%d,CODECS="mp4a.40.2"`+"\n", bandwidth)
		fmt.Fprintf(buf, "audio_%dkbps/playlist.m3u8\n", kbps)
	}

	return buf.Bytes()
}

// GenerateMedia returns a media playlist for one quality of a song, built
// from segmentCount fixed-length segments of segmentSeconds duration each.
// Returns ErrQualityNotFound if kbps isn't in availableQualities.
func GenerateMedia(songID string, kbps int, availableQualities []int, segmentCount, segmentSeconds int) ([]byte, error) {
	found := false
	for _, q := range availableQualities {
		if q == kbps {
			found = true
			break
		}
	}
	if !found {
		return nil, &ErrQualityNotFound{SongID: songID, Kbps: kbps}
	}

	if segmentSeconds <= 0 {
		segmentSeconds = DefaultSegmentSeconds
	}

	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	fmt.Fprintf(buf, "#EXT-X-VERSION:%d\n", playlistVersion)
	fmt.Fprintf(buf, "#EXT-X-TARGETDURATION:%d\n", segmentSeconds)
	buf.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")

	for i := 0; i < segmentCount; i++ {
		fmt.Fprintf(buf, "#EXTINF:%d.0,\n", segmentSeconds)
		fmt.Fprintf(buf, "segment_%05d.ts\n", i)
	}

	buf.WriteString("#EXT-X-ENDLIST\n")
	return buf.Bytes(), nil
}
