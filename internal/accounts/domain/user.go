package domain

import "time"

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      Role // joined from the roles table
	IsPending bool // invited, not yet activated
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the representation handed to hooks and HTTP clients.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      RoleRef   `json:"role"`
	IsPending bool      `json:"isPending"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role.Ref(),
		IsPending: u.IsPending,
		CreatedAt: u.CreatedAt,
	}
}

// AuthIdentity binds a user to an external login provider.
type AuthIdentity struct {
	ID           string
	UserID       string
	ProviderType string
	ProviderID   string
	CreatedAt    time.Time
}
