package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

const maxBodyBytes = 1 << 16

// UsersHandler serves the user lookup and lifecycle endpoints.
type UsersHandler struct {
	UserService     *service.UserService
	RolesService    *service.RolesService
	DeletionService *service.DeletionService
}

// HandleGet handles GET /v1/users/{id}.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u.Public())
}

// HandleDelete handles DELETE /v1/users/{id}?transferId=.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "no acting user")
		return
	}

	err := h.DeletionService.DeleteUser(r.Context(), actor, r.PathValue("id"), r.URL.Query().Get("transferId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// HandleChangeRole handles PATCH /v1/users/{id}/role.
func (h *UsersHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "no acting user")
		return
	}

	// An undecodable body is passed on as an incomplete role so the guards
	// still decide which error wins.
	var req ChangeRoleRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		req.NewRoleName = &domain.RoleRef{}
	}

	if err := h.RolesService.ChangeUserRole(r.Context(), actor, r.PathValue("id"), req.NewRoleName); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
