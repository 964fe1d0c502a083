package api

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// paginationValues parses offset and limit query parameters, clamping limit
// to [1, maxLimit]. Invalid values fall back to defaults rather than erroring;
// listings should always succeed.
func paginationValues(r *http.Request) (offset, limit int) {
	offset = 0
	limit = defaultLimit

	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxLimit {
			limit = parsed
		}
	}
	return offset, limit
}
