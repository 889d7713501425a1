package auth

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify_RoundTrip(t *testing.T) {
	s := NewSigner("super-secret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	token, err := s.Sign(Claims{Sub: "user-1", Exp: now.Add(time.Hour).Unix()}, now)
	require.NoError(t, err)

	claims, err := s.Verify(token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	s := NewSigner("super-secret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	token, err := s.Sign(Claims{Sub: "user-1", Exp: now.Add(time.Minute).Unix()}, now)
	require.NoError(t, err)

	_, err = s.Verify(token, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	s := NewSigner("super-secret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	token, err := s.Sign(Claims{Sub: "user-1", Exp: now.Add(time.Hour).Unix()}, now)
	require.NoError(t, err)

	other := NewSigner("different-secret")
	_, err = other.Verify(token, now)
	assert.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerify_RejectsMalformedToken(t *testing.T) {
	s := NewSigner("super-secret")
	_, err := s.Verify("not-a-token", time.Now())
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestBearerFromRequest(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	tok, err := BearerFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestBearerFromRequest_MissingHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerFromRequest(req)
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestSignStreamURL_RoundTrip(t *testing.T) {
	s := NewSigner("super-secret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	signed, expiresAt, err := s.SignStreamURL("https://cdn.example.com/songs/abc/audio_128kbps.m3u8", "user-1", "song-abc", time.Hour, now)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(now.Add(time.Hour)))

	u, err := parseQueryToken(signed)
	require.NoError(t, err)
	claims, err := s.VerifyStreamURLToken(u, "song-abc", now)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
}

func TestVerifyStreamURLToken_RejectsWrongSong(t *testing.T) {
	s := NewSigner("super-secret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	signed, _, err := s.SignStreamURL("https://cdn.example.com/songs/abc/audio_128kbps.m3u8", "user-1", "song-abc", time.Hour, now)
	require.NoError(t, err)

	tok, err := parseQueryToken(signed)
	require.NoError(t, err)
	_, err = s.VerifyStreamURLToken(tok, "song-other", now)
	assert.Error(t, err)
}

func parseQueryToken(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Query().Get("token"), nil
}
