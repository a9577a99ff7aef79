package auth

import (
	"context"
	"errors"
	"strings"

	"gigbook/internal/config"
	"gigbook/internal/domain"
	"gigbook/internal/models"
)

// StaticResolver maps fixed tokens to identities. Used for local development and tests.
type StaticResolver struct {
	tokens map[string]models.Identity
}

func NewStaticResolver(tokens []config.DevToken) *StaticResolver {
	m := make(map[string]models.Identity, len(tokens))
	for _, t := range tokens {
		// Same normalization as OIDC claims, so both paths land on one user row.
		email := strings.ToLower(strings.TrimSpace(t.Email))
		name := strings.TrimSpace(t.Name)
		if name == "" {
			name = email
		}
		m[t.Token] = models.Identity{Email: email, Name: name, Role: t.Role}
	}
	return &StaticResolver{tokens: m}
}

func (r *StaticResolver) Resolve(_ context.Context, credential string) (*models.Identity, error) {
	identity, ok := r.tokens[credential]
	if !ok {
		return nil, domain.Unauthenticated(errors.New("unknown token"))
	}
	return &identity, nil
}

// ChainResolver asks each resolver in turn and returns the first identity.
type ChainResolver []domain.IdentityResolver

func (c ChainResolver) Resolve(ctx context.Context, credential string) (*models.Identity, error) {
	var errs []error
	for _, r := range c {
		identity, err := r.Resolve(ctx, credential)
		if err == nil {
			return identity, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, domain.Unauthenticated(errors.New("no identity resolver configured"))
	}
	return nil, domain.Unauthenticated(errors.Join(errs...))
}
