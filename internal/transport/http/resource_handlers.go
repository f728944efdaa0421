// Copyright 2026 The LinkSpace Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/identity"
	"github.com/linkspace/linkspace/internal/reservation"
	"github.com/linkspace/linkspace/internal/space"
	"github.com/linkspace/linkspace/internal/tenant"
)

// respond writes v with status, or the mapped error.
func respond[T any](w http.ResponseWriter, r *http.Request, status int, v T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, status, v)
}

// Empresas

func (h *Handler) GetEmpresa(w http.ResponseWriter, r *http.Request) {
	t, err := h.tenantService.Get(r.Context(), chi.URLParam(r, "empresaId"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, t, err)
}

func (h *Handler) UpdateEmpresa(w http.ResponseWriter, r *http.Request) {
	var patch tenant.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.tenantService.Update(r.Context(), chi.URLParam(r, "empresaId"), patch, GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, t, err)
}

func (h *Handler) ListEmpresaReservations(w http.ResponseWriter, r *http.Request) {
	h.ListReservations(w, r)
}

func (h *Handler) ListEmpresaSpaces(w http.ResponseWriter, r *http.Request) {
	h.ListSpaces(w, r)
}

// Spaces

func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.spaceService.List(r.Context(), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, spaces, err)
}

func (h *Handler) GetSpace(w http.ResponseWriter, r *http.Request) {
	sp, err := h.spaceService.Get(r.Context(), chi.URLParam(r, "id"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, sp, err)
}

func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var in space.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sp, err := h.spaceService.Create(r.Context(), in, GetPrincipal(r.Context()))
	respond(w, r, http.StatusCreated, sp, err)
}

func (h *Handler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	var patch space.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	sp, err := h.spaceService.Update(r.Context(), chi.URLParam(r, "id"), patch, GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, sp, err)
}

func (h *Handler) DeactivateSpace(w http.ResponseWriter, r *http.Request) {
	sp, err := h.spaceService.Deactivate(r.Context(), chi.URLParam(r, "id"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, sp, err)
}

// Reservas

// ListReservations accepts status, space_id, user_id, from and to (RFC 3339)
// query parameters. Non-admins only ever see their own reservations.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	f, err := reservationFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.reservationService.List(r.Context(), GetPrincipal(r.Context()), f)
	respond(w, r, http.StatusOK, list, err)
}

func reservationFilter(r *http.Request) (reservation.Filter, error) {
	q := r.URL.Query()
	f := reservation.Filter{
		Status:  q.Get("status"),
		SpaceID: q.Get("space_id"),
		UserID:  q.Get("user_id"),
	}
	verr := &apperr.ValidationError{}
	parse := func(field string) *time.Time {
		v := q.Get(field)
		if v == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			verr.Add(field, "must be an RFC 3339 timestamp")
			return nil
		}
		t = t.UTC()
		return &t
	}
	f.From = parse("from")
	f.To = parse("to")
	return f, verr.OrNil()
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var in reservation.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.reservationService.Create(r.Context(), in, GetPrincipal(r.Context()))
	respond(w, r, http.StatusCreated, res, err)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservationService.Get(r.Context(), chi.URLParam(r, "id"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var patch reservation.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.reservationService.Update(r.Context(), chi.URLParam(r, "id"), patch, GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) ApproveReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservationService.Approve(r.Context(), chi.URLParam(r, "id"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservationService.Cancel(r.Context(), chi.URLParam(r, "id"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, res, err)
}

// Users

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identityService.ListUsers(r.Context(), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, users, err)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), chi.URLParam(r, "id"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, user, err)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in identity.CreateUserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.identityService.CreateUser(r.Context(), in, GetPrincipal(r.Context()))
	respond(w, r, http.StatusCreated, user, err)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch identity.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.identityService.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch, GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, user, err)
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.DeactivateUser(r.Context(), chi.URLParam(r, "id"), GetPrincipal(r.Context()))
	respond(w, r, http.StatusOK, user, err)
}
