package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"hermes/core"
	"hermes/storage"

	"github.com/gorilla/mux"
)

type hostRequest struct {
	Hostname string `json:"hostname"`
}

// createHost handles POST /api/v1/hosts.
func (a *API) createHost(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.badRequest(w, "invalid JSON body")
		return
	}
	if req.Hostname == "" {
		a.badRequest(w, "Missing Required Argument: hostname")
		return
	}

	host := &core.Host{Hostname: req.Hostname}
	err := a.hostStorage.CreateHost(r.Context(), host)
	switch {
	case errors.Is(err, storage.ErrDuplicateHost):
		a.conflict(w, err.Error())
		return
	case errors.Is(err, core.ErrInvalid):
		a.badRequest(w, err.Error())
		return
	case err != nil:
		a.internalError(w, err)
		return
	}

	a.created(w, host.Href(APIPrefix), map[string]interface{}{"host": host})
}

// getHosts handles GET /api/v1/hosts.
func (a *API) getHosts(w http.ResponseWriter, r *http.Request) {
	hostname := r.URL.Query().Get("hostname")
	offset, limit := paginationValues(r)

	hosts, total, err := a.hostStorage.GetHosts(r.Context(), hostname, offset, limit)
	if err != nil {
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{
		"limit":      limit,
		"offset":     offset,
		"totalHosts": total,
		"hosts":      hosts,
	})
}

// getHost handles GET /api/v1/hosts/{hostname}. The host is returned with its
// most recent event, when one exists.
func (a *API) getHost(w http.ResponseWriter, r *http.Request) {
	hostname := mux.Vars(r)["hostname"]

	host, err := a.hostStorage.GetHost(r.Context(), hostname)
	if errors.Is(err, storage.ErrHostNotFound) {
		a.notFound(w, fmt.Sprintf("No such Host %s found", hostname))
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}

	data := map[string]interface{}{"host": host}
	if lastEvent, err := a.eventStorage.LatestEventForHost(r.Context(), hostname); err == nil && lastEvent != nil {
		data["lastEvent"] = lastEvent
	}

	a.success(w, data)
}

// updateHost handles PUT /api/v1/hosts/{hostname}.
func (a *API) updateHost(w http.ResponseWriter, r *http.Request) {
	hostname := mux.Vars(r)["hostname"]

	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.badRequest(w, "invalid JSON body")
		return
	}
	if req.Hostname == "" {
		a.badRequest(w, "Missing Required Argument: hostname")
		return
	}

	host, err := a.hostStorage.UpdateHost(r.Context(), hostname, req.Hostname)
	switch {
	case errors.Is(err, storage.ErrHostNotFound):
		a.notFound(w, fmt.Sprintf("No such Host %s found", hostname))
		return
	case errors.Is(err, storage.ErrDuplicateHost):
		a.conflict(w, err.Error())
		return
	case errors.Is(err, core.ErrInvalid):
		a.badRequest(w, err.Error())
		return
	case err != nil:
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{"host": host})
}

// deleteHost handles DELETE /api/v1/hosts/{hostname}.
func (a *API) deleteHost(w http.ResponseWriter, r *http.Request) {
	hostname := mux.Vars(r)["hostname"]

	err := a.hostStorage.DeleteHost(r.Context(), hostname)
	switch {
	case errors.Is(err, storage.ErrHostNotFound):
		a.notFound(w, fmt.Sprintf("No such Host %s found", hostname))
		return
	case errors.Is(err, storage.ErrConstraintViolation):
		a.conflict(w, fmt.Sprintf("Host %s has recorded events and cannot be deleted", hostname))
		return
	case err != nil:
		a.internalError(w, err)
		return
	}

	a.success(w, map[string]interface{}{
		"message": fmt.Sprintf("Host %s deleted.", hostname),
	})
}
