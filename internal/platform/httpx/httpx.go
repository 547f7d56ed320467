// Package httpx renders JSON responses and maps error kinds to HTTP status
// codes for every adapter.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindEmptyCart, apperr.KindReturnWindowExpired:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidTransition, apperr.KindAlreadyExists, apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError logs internal failures and hides their detail from the client.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == apperr.KindInternal {
		log.Error("request failed", "err", err)
		msg = "internal error"
	}
	WriteJSON(w, StatusOf(kind), errorBody{Error: errorDetail{Kind: kind.String(), Message: msg}})
}

// Decode reads a JSON body into v, reporting malformed input as InvalidArgument.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.KindInvalidArgument, "invalid body", err)
	}
	return nil
}
