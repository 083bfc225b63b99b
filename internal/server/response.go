package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matzehuels/mindmap/pkg/document"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
)

type errorResponse struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code,omitempty"`
}

// legacyErrorResponse is the failure shape the browser editor expects.
type legacyErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    apperrors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDocument(w http.ResponseWriter, status int, doc *document.Document) {
	data, err := document.Marshal(doc)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode map"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	writeJSON(w, statusFor(code), errorResponse{Error: apperrors.UserMessage(err), Code: code})
}

func legacyError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	writeJSON(w, statusFor(code), legacyErrorResponse{Error: apperrors.UserMessage(err), Code: code})
}

// statusFor maps an application error code to an HTTP status.
func statusFor(code apperrors.Code) int {
	switch {
	case code == "":
		return http.StatusInternalServerError
	case code == apperrors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case code == apperrors.ErrCodeStorage:
		return http.StatusBadGateway
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(string(code), "NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func mustMarshal(doc *document.Document) json.RawMessage {
	data, err := document.Marshal(doc)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
