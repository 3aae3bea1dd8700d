package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

type errorBody struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps an error code to an HTTP status. Malformed requests are
// 400; well-formed input that cannot be laid out is 422.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errs.ErrCodeInvalidDocument, errs.ErrCodeInvalidCanvas, errs.ErrCodeInvalidTemplate, errs.ErrCodeInvalidPlan:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Uncoded errors are logged and
// hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	code := errs.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err, "request_id", RequestIDFrom(r.Context()))
		writeJSON(w, status, errorBody{Error: "internal error", Code: errs.ErrCodeInternal})
		return
	}
	if s.log.GetLevel() <= log.DebugLevel {
		s.log.Debug("request rejected", "code", code, "err", err)
	}
	writeJSON(w, status, errorBody{Error: errs.UserMessage(err), Code: code})
}
