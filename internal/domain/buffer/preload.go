package buffer

import (
	"context"
	"sort"
	"time"
)

// DefaultMaxHints is the default K in spec.md §4.A's "up to K hints (default 3)".
const DefaultMaxHints = 3

// SongFrequency is one candidate next-song with its raw co-play weight
// within the lookback window, as reported by the history repository.
type SongFrequency struct {
	SongID string
	Plays  int
}

// HistoryRepository is the external collaborator predictPreloadHints reads
// from. Kept as an injected capability, not embedded data access, so the
// engine itself stays pure and independently testable.
type HistoryRepository interface {
	// ActivePlaylistNext returns the songs that follow currentSongID in the
	// playlist the user is currently playing through, if any, ordered by
	// playback position.
	ActivePlaylistNext(ctx context.Context, userID, currentSongID string) (next []string, inPlaylist bool, err error)
	// CoPlayedWithin returns songs historically played within window of
	// currentSongID by userID, with raw play counts.
	CoPlayedWithin(ctx context.Context, userID, currentSongID string, window time.Duration) ([]SongFrequency, error)
	// SkipRateLast24h returns the fraction (0..1) of tracks userID skipped
	// in the last 24 hours.
	SkipRateLast24h(ctx context.Context, userID string) (float64, error)
}

const coPlayWindow = 30 * 24 * time.Hour

var playlistProbabilities = []float64{0.9, 0.75, 0.6}

// PredictPreloadHints implements spec.md §4.A's preload prediction: playlist
// continuation takes priority over co-play ranking, commute-hour boosting
// applies to the top three, and a high skip rate truncates the result to
// at most one hint. now is passed explicitly to keep the function pure.
func PredictPreloadHints(ctx context.Context, repo HistoryRepository, userID, currentSongID string, now time.Time, maxHints int) ([]PreloadHint, error) {
	if maxHints <= 0 {
		maxHints = DefaultMaxHints
	}

	var hints []PreloadHint

	next, inPlaylist, err := repo.ActivePlaylistNext(ctx, userID, currentSongID)
	if err != nil {
		return nil, err
	}
	if inPlaylist && len(next) > 0 {
		for i, songID := range next {
			if i >= len(playlistProbabilities) || i >= maxHints {
				break
			}
			hints = append(hints, PreloadHint{
				SongID:      songID,
				Probability: playlistProbabilities[i],
				Reason:      "next in playlist",
			})
		}
	} else {
		freqs, err := repo.CoPlayedWithin(ctx, userID, currentSongID, coPlayWindow)
		if err != nil {
			return nil, err
		}
		hints = rankByFrequency(freqs, maxHints)
	}

	hints = applyCommuteBoost(hints, now)

	skipRate, err := repo.SkipRateLast24h(ctx, userID)
	if err != nil {
		return nil, err
	}
	if skipRate > 0.4 && len(hints) > 1 {
		hints = hints[:1]
	}

	return hints, nil
}

func rankByFrequency(freqs []SongFrequency, maxHints int) []PreloadHint {
	if len(freqs) == 0 {
		return nil
	}

	total := 0
	for _, f := range freqs {
		total += f.Plays
	}
	if total == 0 {
		return nil
	}

	sorted := make([]SongFrequency, len(freqs))
	copy(sorted, freqs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Plays > sorted[j].Plays
	})

	n := maxHints
	if n > len(sorted) {
		n = len(sorted)
	}

	hints := make([]PreloadHint, 0, n)
	for i := 0; i < n; i++ {
		hints = append(hints, PreloadHint{
			SongID:      sorted[i].SongID,
			Probability: clamp01(float64(sorted[i].Plays) / float64(total)),
			Reason:      "frequently played together",
		})
	}
	return hints
}

// applyCommuteBoost boosts the top three hints by +0.1 (clamped at 1.0)
// during commute hours: 0700-0900 and 1700-1900 local time.
func applyCommuteBoost(hints []PreloadHint, now time.Time) []PreloadHint {
	if !isCommuteHour(now) {
		return hints
	}
	for i := range hints {
		if i >= 3 {
			break
		}
		hints[i].Probability = clamp01(hints[i].Probability + 0.1)
	}
	return hints
}

func isCommuteHour(now time.Time) bool {
	h := now.Hour()
	return (h >= 7 && h < 9) || (h >= 17 && h < 19)
}
