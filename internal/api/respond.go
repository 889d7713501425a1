package api

import (
	"encoding/json"
	"net/http"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/api/problem"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
)

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := errs.As(err); ok {
		problem.WriteError(w, r, e)
		return
	}
	problem.WriteError(w, r, errs.Wrap(errs.Internal, err, "unclassified error"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.L().Error().Err(err).Msg("api: failed to encode response")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.New(errs.InvalidArgument, "malformed request body: "+err.Error())
	}
	return nil
}
