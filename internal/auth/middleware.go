package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gigbook/internal/domain"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
)

// UserLoginer upserts the user behind a verified identity.
type UserLoginer interface {
	Login(ctx context.Context, identity *models.Identity) (*models.User, error)
}

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Middleware struct {
	resolver   domain.IdentityResolver
	users      UserLoginer
	cookieName string
	writeError ErrorWriter
	logger     *zerolog.Logger
}

func NewMiddleware(resolver domain.IdentityResolver, users UserLoginer, cookieName string, writeError ErrorWriter, logger *zerolog.Logger) *Middleware {
	return &Middleware{resolver: resolver, users: users, cookieName: cookieName, writeError: writeError, logger: logger}
}

// Require resolves the credential on every request and rejects the request when no
// user can be established.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := Credential(r, m.cookieName)
		if credential == "" {
			m.writeError(w, r, domain.Unauthenticated(errors.New("missing credential")))
			return
		}

		identity, err := m.resolver.Resolve(r.Context(), credential)
		if err != nil {
			m.logger.Debug().Err(err).Msg("Credential rejected")
			m.writeError(w, r, domain.Unauthenticated(err))
			return
		}

		user, err := m.users.Login(r.Context(), identity)
		if err != nil {
			m.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Credential extracts a bearer token, falling back to the session cookie.
func Credential(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}
