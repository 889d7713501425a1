package auth

import (
	"fmt"
	"net/url"
	"time"
)

// SignStreamURL signs a short-lived playback token for songId scoped to
// userId and appends it as a query parameter on baseURL.
func (s *Signer) SignStreamURL(baseURL, userID, songID string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	token, err := s.Sign(Claims{Sub: userID, SongID: songID, Exp: expiresAt.Unix()}, now)
	if err != nil {
		return "", time.Time{}, err
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), expiresAt, nil
}

// VerifyStreamURLToken verifies a stream URL token and ensures it was
// issued for songID.
func (s *Signer) VerifyStreamURLToken(token, songID string, now time.Time) (Claims, error) {
	claims, err := s.Verify(token, now)
	if err != nil {
		return Claims{}, err
	}
	if claims.SongID != songID {
		return Claims{}, ErrInvalidSig
	}
	return claims, nil
}
