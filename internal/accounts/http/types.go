package http

import "github.com/aussiebroadwan/accounts/internal/accounts/domain"

// ChangeRoleRequest is the body of PATCH /v1/users/{id}/role.
type ChangeRoleRequest struct {
	NewRoleName *domain.RoleRef `json:"newRoleName"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type RoleInfo struct {
	ID    string `json:"id"`
	Scope string `json:"scope"`
	Name  string `json:"name"`
}

type ListRolesResponse struct {
	Roles []RoleInfo `json:"roles"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys,omitempty"`
}

type HealthResponse struct {
	Status          string        `json:"status"`
	Uptime          string        `json:"uptime"`
	Version         string        `json:"version"`
	Checks          *HealthChecks `json:"checks,omitempty"`
	ActiveWorkflows *int          `json:"activeWorkflows,omitempty"`
}
