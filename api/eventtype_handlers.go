package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"hermes/core"
	"hermes/storage"

	"github.com/gorilla/mux"
)

type eventTypeRequest struct {
	Category    string `json:"category"`
	State       string `json:"state"`
	Description string `json:"description"`
}

// createEventType handles POST /api/v1/eventtypes.
func (a *API) createEventType(w http.ResponseWriter, r *http.Request) {
	var req eventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.badRequest(w, "invalid JSON body")
		return
	}
	if req.Category == "" || req.State == "" {
		a.badRequest(w, "Missing Required Argument: category, state")
		return
	}

	et := &core.EventType{
		Category:    req.Category,
		State:       req.State,
		Description: req.Description,
	}
	err := a.eventTypeStorage.CreateEventType(r.Context(), et)
	switch {
	case errors.Is(err, storage.ErrDuplicateEventType):
		a.conflict(w, err.Error())
		return
	case errors.Is(err, core.ErrInvalid):
		a.badRequest(w, err.Error())
		return
	case err != nil:
		a.internalError(w, err)
		return
	}

	a.created(w, et.Href(APIPrefix), map[string]interface{}{"eventType": et})
}

// getEventTypes handles GET /api/v1/eventtypes.
func (a *API) getEventTypes(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	state := r.URL.Query().Get("state")
	offset, limit := paginationValues(r)

	eventTypes, total, err := a.eventTypeStorage.GetEventTypes(r.Context(), category, state, offset, limit)
	if err != nil {
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{
		"limit":           limit,
		"offset":          offset,
		"totalEventTypes": total,
		"eventTypes":      eventTypes,
	})
}

// getEventType handles GET /api/v1/eventtypes/{id}.
func (a *API) getEventType(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	et, err := a.eventTypeStorage.GetEventType(r.Context(), id)
	if errors.Is(err, storage.ErrEventTypeNotFound) {
		a.notFound(w, fmt.Sprintf("No such EventType %d found", id))
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{"eventType": et})
}

// updateEventType handles PUT /api/v1/eventtypes/{id}. Only the description
// can change.
func (a *API) updateEventType(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var req struct {
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.badRequest(w, "invalid JSON body")
		return
	}
	if req.Description == nil {
		a.badRequest(w, "Missing Required Argument: description")
		return
	}

	et, err := a.eventTypeStorage.UpdateEventType(r.Context(), id, *req.Description)
	if errors.Is(err, storage.ErrEventTypeNotFound) {
		a.notFound(w, fmt.Sprintf("No such EventType %d found", id))
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{"eventType": et})
}

// deleteEventType handles DELETE /api/v1/eventtypes/{id}. Event types are
// never removed; recorded events depend on them.
func (a *API) deleteEventType(w http.ResponseWriter, r *http.Request) {
	a.writeError(w, http.StatusMethodNotAllowed, "Not supported.")
}
