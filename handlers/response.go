package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/bookifyapp/server/apperr"
)

// Envelope is the response shape every endpoint uses:
// {status: "success"|"error", message, data}.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Result  *int   `json:"result,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Println("response encode:", err)
	}
}

func respondSuccess(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, Envelope{Status: "success", Message: message, Data: data})
}

// respondList is respondSuccess plus a result count, for collection scans.
func respondList(w http.ResponseWriter, message string, count int, data any) {
	writeJSON(w, http.StatusOK, Envelope{Status: "success", Message: message, Result: &count, Data: data})
}

// respondError maps a domain error onto its HTTP status. Anything that is not
// an apperr becomes a 500 with a generic message so internals never leak.
func respondError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if apperr.As(err, &appErr) {
		writeJSON(w, appErr.HTTPStatus(), Envelope{Status: "error", Message: appErr.Message})
		return
	}
	log.Println("unhandled error:", err)
	writeJSON(w, http.StatusInternalServerError, Envelope{Status: "error", Message: "Something went wrong while processing your request"})
}

// decodeStrict decodes a JSON body rejecting unknown fields, so requests
// carrying anything outside an operation's declared field set fail in full.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return apperr.Validation("Invalid field(s) provided")
		}
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}
