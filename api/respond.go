package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope is the fixed response shape of the hermes API.
type envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (a *API) respondJSON(w http.ResponseWriter, payload envelope, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Response already started, can't send an error to the client.
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", payload.Data))
	}
}

// success writes a 200 with the standard ok envelope.
func (a *API) success(w http.ResponseWriter, data interface{}) {
	a.respondJSON(w, envelope{Status: "ok", Data: data}, http.StatusOK)
}

// created writes a 201 with a Location header and the standard ok envelope.
func (a *API) created(w http.ResponseWriter, location string, data interface{}) {
	w.Header().Set("Location", location)
	a.respondJSON(w, envelope{Status: "ok", Data: data}, http.StatusCreated)
}

// writeError writes the standard error envelope.
func (a *API) writeError(w http.ResponseWriter, code int, message string) {
	a.respondJSON(w, envelope{
		Status: "error",
		Error:  &apiError{Code: code, Message: message},
	}, code)
}

// badRequest, notFound, and conflict mirror the error taxonomy of the
// request layer: malformed input, missing resources, integrity collisions.
func (a *API) badRequest(w http.ResponseWriter, message string) {
	a.writeError(w, http.StatusBadRequest, message)
}

func (a *API) notFound(w http.ResponseWriter, message string) {
	a.writeError(w, http.StatusNotFound, message)
}

func (a *API) conflict(w http.ResponseWriter, message string) {
	a.writeError(w, http.StatusConflict, message)
}

// internalError logs the failure, notifies the attached error reporter, and
// answers with an opaque 500.
func (a *API) internalError(w http.ResponseWriter, err error) {
	a.logger.Errorw("Request failed", "error", err)
	if a.reporter != nil {
		a.reporter.CaptureException(err)
	}
	a.writeError(w, http.StatusInternalServerError, "internal server error")
}
