package socket

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thermod-go/thermod/internal/status"
)

// errorBody is the stable JSON shape for every non-2xx response
// (spec.md §7: "{error: string, explain?: string}").
type errorBody struct {
	Error   string `json:"error"`
	Explain string `json:"explain,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string, explain string) {
	writeJSON(w, code, errorBody{Error: msg, Explain: explain})
}

// statusCodeFor maps the daemon's error taxonomy (spec.md §7) to an
// HTTP status code: known validation/content errors become 400,
// anything else becomes 500.
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, status.ErrValidation),
		errors.Is(err, status.ErrInvalidContent),
		errors.Is(err, status.ErrInvalidSyntax),
		errors.Is(err, status.ErrJSONValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeErrorForErr(w http.ResponseWriter, err error) {
	writeError(w, statusCodeFor(err), "request could not be completed", err.Error())
}
