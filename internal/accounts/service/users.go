package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

var ErrEmailTaken = errors.New("email_taken")

type UserService struct {
	Store store.Store
	Cache RoleCache
}

type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	Role      domain.RoleRef
	Pending   bool
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// CreateUser provisions an account. The global owner can only be created
// while no owner exists, which is how a fresh install is bootstrapped.
func (s *UserService) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	log := slogx.FromContext(ctx)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" {
		return domain.User{}, fmt.Errorf("%w: email", ErrMissingField)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.User{}, fmt.Errorf("%w: email", ErrMalformedField)
	}
	if !in.Role.Complete() {
		return domain.User{}, fmt.Errorf("%w: role requires scope and name", ErrMalformedField)
	}
	if in.Role.Scope != domain.ScopeGlobal {
		return domain.User{}, fmt.Errorf("%w: users hold global roles only", ErrMalformedField)
	}

	role, err := s.Cache.Get(ctx, in.Role.Scope, in.Role.Name)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("%w: unknown role %s", ErrMalformedField, in.Role)
	}
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:        idx.New().String(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
		IsPending: in.Pending,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if role.Is(domain.GlobalOwner) {
			n, err := tx.Users().CountByRole(ctx, role.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: a global owner already exists", ErrInsufficientPrivilege)
			}
		}

		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to create user", slog.String("email", in.Email), slogx.Err(err))
		return domain.User{}, err
	}

	log.Info("user created", slog.String("user_id", u.ID), slog.String("role", role.ID))
	return s.Store.Users().GetUserByID(ctx, u.ID)
}
