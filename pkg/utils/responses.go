package utils

import (
	"encoding/json"
	"net/http"
)

// Error codes let clients branch without parsing messages.
const (
	CodeValidation      = "validation_error"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeInvalidSign     = "invalid_signature"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeRateLimited     = "rate_limited"
	CodeUpstreamFailure = "gateway_error"
	CodeInternal        = "internal_error"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ResponseSuccess returns 200 OK
func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// ResponseCreated returns 201 Created
func ResponseCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// ResponseError writes a failed envelope. errors carries per-field details
// and may be nil.
func ResponseError(w http.ResponseWriter, status int, code, message string, errors any) {
	writeJSON(w, status, Response{Message: message, Code: code, Errors: errors})
}

func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	ResponseError(w, http.StatusBadRequest, CodeValidation, message, errors)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func ResponseForbidden(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusForbidden, CodeForbidden, message, nil)
}

// ResponseInvalidSignature is the 403 sent for forged gateway notifications.
// The message never says which field failed.
func ResponseInvalidSignature(w http.ResponseWriter) {
	ResponseError(w, http.StatusForbidden, CodeInvalidSign, "Invalid signature", nil)
}

func ResponseNotFound(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusNotFound, CodeNotFound, message, nil)
}

func ResponseConflict(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusConflict, CodeConflict, message, nil)
}

func ResponseTooManyRequests(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusTooManyRequests, CodeRateLimited, message, nil)
}

// ResponseUpstreamFailure reports a payment gateway failure as 500 with the
// gateway's reason.
func ResponseUpstreamFailure(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusInternalServerError, CodeUpstreamFailure, message, nil)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusInternalServerError, CodeInternal, message, nil)
}
