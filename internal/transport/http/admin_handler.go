package http

import (
	"net/http"
	"strconv"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/audit"
	"github.com/linkspace/linkspace/internal/reservation"
)

// DashboardResponse summarizes the admin's tenant
type DashboardResponse struct {
	TenantID     string         `json:"empresa_id"`
	Users        int            `json:"users"`
	Spaces       int            `json:"spaces"`
	ActiveSpaces int            `json:"active_spaces"`
	Reservations map[string]int `json:"reservations"`
}

// Dashboard counts users, spaces and reservations by status.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	users, err := h.identityService.ListUsers(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	spaces, err := h.spaceService.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reservations, err := h.reservationService.List(r.Context(), p, reservation.Filter{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := DashboardResponse{
		TenantID: p.TenantID,
		Users:    len(users),
		Spaces:   len(spaces),
		Reservations: map[string]int{
			"total":                     len(reservations),
			reservation.StatusPending:   0,
			reservation.StatusConfirmed: 0,
			reservation.StatusCancelled: 0,
		},
	}
	for _, sp := range spaces {
		if sp.IsActive() {
			resp.ActiveSpaces++
		}
	}
	for _, res := range reservations {
		resp.Reservations[res.Status]++
	}
	respondJSON(w, http.StatusOK, resp)
}

// AdminSpaces lists every space of the tenant, inactive ones included.
func (h *Handler) AdminSpaces(w http.ResponseWriter, r *http.Request) {
	h.ListSpaces(w, r)
}

// AuditLogs lists audit entries of the admin's tenant, newest first. It
// accepts action, resource_type, actor_id and limit query parameters.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := audit.Filter{
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ActorID:      q.Get("actor_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, apperr.Invalid("limit", "must be a positive integer"))
			return
		}
		f.Limit = n
	}

	entries, err := h.auditService.Query(r.Context(), GetPrincipal(r.Context()), f)
	respond(w, r, http.StatusOK, entries, err)
}
