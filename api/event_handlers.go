package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"hermes/core"
	"hermes/metrics"
	"hermes/storage"

	"github.com/gorilla/mux"
)

type eventRequest struct {
	Hostname    string `json:"hostname"`
	User        string `json:"user"`
	EventTypeID int64  `json:"eventTypeId"`
	Note        string `json:"note"`
}

// createEvent handles POST /api/v1/events. Events reference a host by name
// and an event type by ID.
func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.badRequest(w, "invalid JSON body")
		return
	}
	if req.Hostname == "" || req.User == "" || req.EventTypeID == 0 {
		a.badRequest(w, "Missing Required Argument: hostname, user, eventTypeId")
		return
	}

	host, err := a.hostStorage.GetHost(r.Context(), req.Hostname)
	if errors.Is(err, storage.ErrHostNotFound) {
		a.notFound(w, fmt.Sprintf("No such Host %s found", req.Hostname))
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}

	eventType, err := a.eventTypeStorage.GetEventType(r.Context(), req.EventTypeID)
	if errors.Is(err, storage.ErrEventTypeNotFound) {
		a.notFound(w, fmt.Sprintf("No such EventType %d found", req.EventTypeID))
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}

	event := &core.Event{
		HostID:      host.ID,
		Hostname:    host.Hostname,
		User:        req.User,
		EventTypeID: eventType.ID,
		Note:        req.Note,
	}
	err = a.eventStorage.CreateEvent(r.Context(), event)
	switch {
	case errors.Is(err, core.ErrInvalid):
		a.badRequest(w, err.Error())
		return
	case err != nil:
		a.internalError(w, err)
		return
	}

	if a.config.CountEvents {
		metrics.EventsCreated.WithLabelValues(eventType.Category).Inc()
	}

	a.created(w, event.Href(APIPrefix), map[string]interface{}{"event": event})
}

// getEvents handles GET /api/v1/events.
func (a *API) getEvents(w http.ResponseWriter, r *http.Request) {
	filter := storage.EventFilter{Hostname: r.URL.Query().Get("hostname")}
	if et := r.URL.Query().Get("eventTypeId"); et != "" {
		id, err := strconv.ParseInt(et, 10, 64)
		if err != nil {
			a.badRequest(w, "invalid eventTypeId")
			return
		}
		filter.EventTypeID = id
	}
	offset, limit := paginationValues(r)

	events, total, err := a.eventStorage.GetEvents(r.Context(), filter, offset, limit)
	if err != nil {
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{
		"limit":       limit,
		"offset":      offset,
		"totalEvents": total,
		"events":      events,
	})
}

// getEvent handles GET /api/v1/events/{id}.
func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	event, err := a.eventStorage.GetEvent(r.Context(), id)
	if errors.Is(err, storage.ErrEventNotFound) {
		a.notFound(w, fmt.Sprintf("No such Event %d found", id))
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{"event": event})
}
