// Package problem writes RFC 7807 problem+json error responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
)

const HeaderRequestID = "X-Request-Id"

// WriteError writes e as an RFC 7807 problem document, deriving status and
// type from e.Kind.
func WriteError(w http.ResponseWriter, r *http.Request, e *errs.Error) {
	status := e.Kind.HTTPStatus()
	reqID := e.RequestID
	if reqID == "" && r != nil {
		reqID = log.RequestIDFromContext(r.Context())
	}

	res := map[string]any{
		"type":       "musify/" + string(e.Kind),
		"title":      string(e.Kind),
		"status":     status,
		"code":       string(e.Kind),
		"request_id": reqID,
	}
	if e.Message != "" {
		res["detail"] = e.Message
	}
	if r != nil {
		res["instance"] = r.URL.EscapedPath()
	}
	if len(e.Fields) > 0 {
		res["fields"] = e.Fields
	}

	w.Header().Set(HeaderRequestID, reqID)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().Err(err).Str("code", string(e.Kind)).Msg("failed to encode problem response")
	}
}

// Write is a convenience wrapper for ad-hoc errors not yet typed as *errs.Error.
func Write(w http.ResponseWriter, r *http.Request, kind errs.Kind, message string) {
	WriteError(w, r, errs.New(kind, message))
}
