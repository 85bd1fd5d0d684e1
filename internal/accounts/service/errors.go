package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

var (
	ErrSelfDeletionForbidden = errors.New("self_deletion_forbidden")
	ErrInvalidTransferee     = errors.New("invalid_transferee")
	ErrUserNotFound          = errors.New("user_not_found")
	ErrInsufficientPrivilege = errors.New("insufficient_privilege")
	ErrMissingField          = errors.New("missing_field")
	ErrMalformedField        = errors.New("malformed_field")
)

// ErrorKind classifies an error returned by the account services.
type ErrorKind string

const (
	KindSelfDeletionForbidden ErrorKind = "self_deletion_forbidden"
	KindInvalidTransferee     ErrorKind = "invalid_transferee"
	KindUserNotFound          ErrorKind = "user_not_found"
	KindInsufficientPrivilege ErrorKind = "insufficient_privilege"
	KindMissingField          ErrorKind = "missing_field"
	KindMalformedField        ErrorKind = "malformed_field"
	KindInternal              ErrorKind = "internal"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrSelfDeletionForbidden, KindSelfDeletionForbidden},
	{ErrInvalidTransferee, KindInvalidTransferee},
	{ErrUserNotFound, KindUserNotFound},
	{ErrInsufficientPrivilege, KindInsufficientPrivilege},
	{ErrMissingField, KindMissingField},
	{ErrMalformedField, KindMalformedField},
}

// KindOf maps err onto its kind. Anything outside the taxonomy, including
// store and collaborator failures, is KindInternal.
func KindOf(err error) ErrorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// lookupUsers fetches every non-empty id in one query. Partial results are
// treated as total failure.
func lookupUsers(ctx context.Context, users store.Users, ids ...string) (map[string]domain.User, error) {
	want := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		want = append(want, id)
	}

	found, err := users.GetUsersByIDs(ctx, want)
	if err != nil {
		return nil, err
	}
	if len(found) != len(want) {
		return nil, ErrUserNotFound
	}

	out := make(map[string]domain.User, len(found))
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}
