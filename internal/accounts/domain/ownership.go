package domain

import "time"

type ResourceKind string

const (
	KindWorkflow   ResourceKind = "workflow"
	KindCredential ResourceKind = "credential"
)

// ResourceKinds lists every kind that carries ownership links.
var ResourceKinds = []ResourceKind{KindWorkflow, KindCredential}

// OwnerRole is the link role that marks the single owner of a resource.
func (k ResourceKind) OwnerRole() RoleRef {
	if k == KindCredential {
		return CredentialOwner
	}
	return WorkflowOwner
}

// OwnershipLink ties a user to a resource with a link role. A resource has at
// most one owner link and any number of shared links; (resource, user) is
// unique.
type OwnershipLink struct {
	Kind       ResourceKind
	ResourceID string
	UserID     string
	RoleID     string
	CreatedAt  time.Time
}

// LinkFilter selects links for deletion. Empty members are unconstrained, but
// at least one must be set.
type LinkFilter struct {
	UserID      string
	RoleID      string
	ResourceIDs []string
}

func (f LinkFilter) IsEmpty() bool {
	return f.UserID == "" && f.RoleID == "" && len(f.ResourceIDs) == 0
}

type Workflow struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Credential struct {
	ID        string
	Name      string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
