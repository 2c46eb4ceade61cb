package httpapi

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
	"github.com/arbiter-games/coordinator/pkg/logger"
)

// ErrorResponse is the standard JSON error envelope for every failing
// endpoint (spec.md §7).
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithField("error", err).Warn("write json response")
	}
}

func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	svcErr := apperrors.As(err)
	if svcErr == nil {
		svcErr = apperrors.NewInternal("unexpected error", err)
	}
	writeJSON(w, log, svcErr.HTTPStatus(), ErrorResponse{
		Code:    string(svcErr.Code),
		Message: svcErr.Message,
		Details: svcErr.Details,
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewInvalidRequest("malformed JSON body")
	}
	return nil
}
