package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// ServeHTTP handles GET /v1/roles.
func (h *RolesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roles, err := h.RolesService.ListAll(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list roles", slogx.Err(err))
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to retrieve roles")
		return
	}

	resp := ListRolesResponse{Roles: make([]RoleInfo, len(roles))}
	for i, role := range roles {
		resp.Roles[i] = RoleInfo{ID: role.ID, Scope: string(role.Scope), Name: string(role.Name)}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
