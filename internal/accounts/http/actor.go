package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type actorKey struct{}

// ActorMiddleware loads the acting user named by the token subject. It must
// run after httpx.AuthnMiddleware.
func ActorMiddleware(users *service.UserService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sub, ok := httpx.UserIDFromContext(ctx)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "token has no subject")
				return
			}

			actor, err := users.GetUserByID(ctx, sub)
			if err != nil {
				if errors.Is(err, service.ErrUserNotFound) {
					httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "token subject is not a known user")
					return
				}
				slogx.FromContext(ctx).Error("failed to load acting user", slogx.Err(err))
				httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
				return
			}

			ctx = context.WithValue(ctx, actorKey{}, actor)
			ctx = slogx.WithActor(ctx, actor.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(actorKey{}).(domain.User)
	return u, ok
}
