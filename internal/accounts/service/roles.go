package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type RolesService struct {
	Store store.Store
	Cache RoleCache
}

// roleChange is the input seen by every guard. target is only loaded once
// the request itself has been validated.
type roleChange struct {
	actor    domain.User
	targetID string
	newRole  *domain.RoleRef
	target   *domain.User
}

type roleGuard struct {
	name  string
	check func(ctx context.Context, s *RolesService, c *roleChange) error
}

// roleGuards run in order; the first failure is returned.
var roleGuards = []roleGuard{
	{"actor_not_member", func(_ context.Context, _ *RolesService, c *roleChange) error {
		if c.actor.Role.Is(domain.GlobalMember) {
			return fmt.Errorf("%w: member cannot change role for any user", ErrInsufficientPrivilege)
		}
		// Scoped roles carry no global authority.
		if _, ok := c.actor.Role.Rank(); !ok {
			return fmt.Errorf("%w: %s is not a global role", ErrInsufficientPrivilege, c.actor.Role.ID)
		}
		return nil
	}},
	{"role_present", func(_ context.Context, _ *RolesService, c *roleChange) error {
		if c.newRole == nil {
			return fmt.Errorf("%w: newRoleName", ErrMissingField)
		}
		return nil
	}},
	{"role_complete", func(_ context.Context, _ *RolesService, c *roleChange) error {
		if !c.newRole.Complete() {
			return fmt.Errorf("%w: newRoleName requires scope and name", ErrMalformedField)
		}
		return nil
	}},
	{"no_owner_promotion", func(_ context.Context, _ *RolesService, c *roleChange) error {
		if *c.newRole == domain.GlobalOwner {
			return fmt.Errorf("%w: no user can be given the global owner role", ErrInsufficientPrivilege)
		}
		return nil
	}},
	{"target_exists", func(ctx context.Context, s *RolesService, c *roleChange) error {
		target, err := s.Store.Users().GetUserByID(ctx, c.targetID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		c.target = &target
		return nil
	}},
	{"admin_cannot_demote_owner", func(_ context.Context, _ *RolesService, c *roleChange) error {
		if c.actor.Role.Is(domain.GlobalAdmin) && c.target.Role.Is(domain.GlobalOwner) {
			return fmt.Errorf("%w: admin cannot change the role of the owner", ErrInsufficientPrivilege)
		}
		return nil
	}},
	{"owner_cannot_demote_owner", func(_ context.Context, _ *RolesService, c *roleChange) error {
		if c.actor.Role.Is(domain.GlobalOwner) && c.target.Role.Is(domain.GlobalOwner) {
			return fmt.Errorf("%w: owner cannot change the role of an owner", ErrInsufficientPrivilege)
		}
		return nil
	}},
}

// ChangeUserRole validates and applies a change to targetID's global role.
func (s *RolesService) ChangeUserRole(ctx context.Context, actor domain.User, targetID string, newRole *domain.RoleRef) error {
	log := slogx.FromContext(ctx).With(slog.String("target_id", targetID))

	c := &roleChange{actor: actor, targetID: targetID, newRole: newRole}
	for _, g := range roleGuards {
		if err := g.check(ctx, s, c); err != nil {
			if KindOf(err) == KindInternal {
				log.Error("role change lookup failed", slog.String("guard", g.name), slogx.Err(err))
			} else {
				log.Warn("role change rejected", slog.String("guard", g.name), slogx.Err(err))
			}
			return err
		}
	}

	// A user's role is always global. Scoped roles only exist on links.
	if newRole.Scope != domain.ScopeGlobal {
		log.Warn("role change names a scoped role", slog.String("role", newRole.ID()))
		return fmt.Errorf("%w: users hold global roles only", ErrMalformedField)
	}

	role, err := s.Cache.Get(ctx, newRole.Scope, newRole.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("role change names an unknown role", slog.String("role", newRole.ID()))
			return fmt.Errorf("%w: unknown role %s", ErrMalformedField, newRole)
		}
		return err
	}

	if err := s.Store.Users().UpdateUserRole(ctx, targetID, role.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, store.ErrAlreadyExists):
			// Only reachable through the single-owner index.
			return fmt.Errorf("%w: a global owner already exists", ErrInsufficientPrivilege)
		}
		log.Error("failed to update user role", slogx.Err(err))
		return err
	}

	log.Info("user role changed",
		slog.String("from", c.target.Role.ID),
		slog.String("to", role.ID),
	)
	return nil
}

// GetRoleByID fetches a role by its ID.
func (s *RolesService) GetRoleByID(ctx context.Context, roleID string) (domain.Role, error) {
	return s.Store.Roles().GetRoleByID(ctx, roleID)
}

// ListAll returns all roles in the system.
func (s *RolesService) ListAll(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

// SeedCatalog creates every catalog role that doesn't exist yet and busts the
// role cache when anything was added.
func (s *RolesService) SeedCatalog(ctx context.Context, catalog []domain.RoleDefinition) (int, error) {
	log := slogx.FromContext(ctx)

	created := 0
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, def := range catalog {
			if !def.Ref().Complete() {
				return fmt.Errorf("%w: catalog entry needs scope and name", ErrMalformedField)
			}
			err := tx.Roles().CreateRole(ctx, domain.Role{
				ID:    def.Ref().ID(),
				Scope: def.Scope,
				Name:  def.Name,
			})
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		log.Error("failed to seed role catalog", slogx.Err(err))
		return 0, err
	}

	if created > 0 && s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			log.Warn("failed to invalidate role cache", slogx.Err(err))
		}
	}
	log.Info("role catalog seeded", slog.Int("created", created), slog.Int("catalog", len(catalog)))
	return created, nil
}
