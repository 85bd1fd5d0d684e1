package domain

import (
	"strings"
	"time"
)

type RoleScope string

const (
	ScopeGlobal     RoleScope = "global"
	ScopeWorkflow   RoleScope = "workflow"
	ScopeCredential RoleScope = "credential"
)

type RoleName string

const (
	RoleOwner  RoleName = "owner"
	RoleAdmin  RoleName = "admin"
	RoleMember RoleName = "member"
	RoleEditor RoleName = "editor"
	RoleUser   RoleName = "user"
)

// RoleRef names a role by its (scope, name) pair as it appears in requests.
type RoleRef struct {
	Scope RoleScope `json:"scope" yaml:"scope"`
	Name  RoleName  `json:"name" yaml:"name"`
}

var (
	GlobalOwner  = RoleRef{Scope: ScopeGlobal, Name: RoleOwner}
	GlobalAdmin  = RoleRef{Scope: ScopeGlobal, Name: RoleAdmin}
	GlobalMember = RoleRef{Scope: ScopeGlobal, Name: RoleMember}

	WorkflowOwner   = RoleRef{Scope: ScopeWorkflow, Name: RoleOwner}
	WorkflowEditor  = RoleRef{Scope: ScopeWorkflow, Name: RoleEditor}
	CredentialOwner = RoleRef{Scope: ScopeCredential, Name: RoleOwner}
	CredentialUser  = RoleRef{Scope: ScopeCredential, Name: RoleUser}
)

// ID is the deterministic role id stored in the roles table ("scope:name").
func (r RoleRef) ID() string { return string(r.Scope) + ":" + string(r.Name) }

func (r RoleRef) String() string { return r.ID() }

// Complete reports whether both members are set.
func (r RoleRef) Complete() bool { return r.Scope != "" && r.Name != "" }

// ParseRoleID splits a "scope:name" role id.
func ParseRoleID(id string) (RoleRef, bool) {
	scope, name, ok := strings.Cut(id, ":")
	if !ok || scope == "" || name == "" {
		return RoleRef{}, false
	}
	return RoleRef{Scope: RoleScope(scope), Name: RoleName(name)}, true
}

type Role struct {
	ID        string
	Scope     RoleScope
	Name      RoleName
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Role) Ref() RoleRef { return RoleRef{Scope: r.Scope, Name: r.Name} }

// Is reports whether the role matches ref exactly. Scopes are never compared
// loosely: a workflow owner is not a global owner.
func (r Role) Is(ref RoleRef) bool { return r.Scope == ref.Scope && r.Name == ref.Name }

// Rank orders global roles (owner > admin > member). ok is false for any
// role outside the global scope, where no ordering is defined.
func (r Role) Rank() (rank int, ok bool) {
	if r.Scope != ScopeGlobal {
		return 0, false
	}
	switch r.Name {
	case RoleOwner:
		return 3, true
	case RoleAdmin:
		return 2, true
	case RoleMember:
		return 1, true
	}
	return 0, false
}

// RoleDefinition is one entry of the role catalog file.
type RoleDefinition struct {
	Scope RoleScope `yaml:"scope"`
	Name  RoleName  `yaml:"name"`
}

func (d RoleDefinition) Ref() RoleRef { return RoleRef{Scope: d.Scope, Name: d.Name} }

// DefaultRoleCatalog is seeded when no catalog file is configured.
func DefaultRoleCatalog() []RoleDefinition {
	return []RoleDefinition{
		{Scope: ScopeGlobal, Name: RoleOwner},
		{Scope: ScopeGlobal, Name: RoleAdmin},
		{Scope: ScopeGlobal, Name: RoleMember},
		{Scope: ScopeWorkflow, Name: RoleOwner},
		{Scope: ScopeWorkflow, Name: RoleEditor},
		{Scope: ScopeCredential, Name: RoleOwner},
		{Scope: ScopeCredential, Name: RoleUser},
	}
}
