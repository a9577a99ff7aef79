package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/models"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCResolver verifies ID tokens issued by the hosted identity provider.
type OIDCResolver struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
	client    *http.Client
}

// NewOIDCResolver discovers the provider at issuer. Discovery and key fetches use a
// bounded HTTP client.
func NewOIDCResolver(ctx context.Context, issuer, clientID, roleClaim string) (*OIDCResolver, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &OIDCResolver{verifier: verifier, roleClaim: roleClaim, client: client}, nil
}

// NewOIDCResolverWithVerifier wraps an existing verifier.
func NewOIDCResolverWithVerifier(verifier *oidc.IDTokenVerifier, roleClaim string) *OIDCResolver {
	return &OIDCResolver{verifier: verifier, roleClaim: roleClaim, client: &http.Client{Timeout: 10 * time.Second}}
}

// Resolve verifies the token and maps its claims. Every failure is Unauthenticated.
func (r *OIDCResolver) Resolve(ctx context.Context, credential string) (*models.Identity, error) {
	if credential == "" {
		return nil, domain.Unauthenticated(errors.New("missing credential"))
	}

	idToken, err := r.verifier.Verify(oidc.ClientContext(ctx, r.client), credential)
	if err != nil {
		return nil, domain.Unauthenticated(fmt.Errorf("invalid token: %w", err))
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, domain.Unauthenticated(fmt.Errorf("failed to parse claims: %w", err))
	}

	identity, err := identityFromClaims(claims, r.roleClaim)
	if err != nil {
		return nil, domain.Unauthenticated(err)
	}
	return identity, nil
}

func identityFromClaims(claims map[string]any, roleClaim string) (*models.Identity, error) {
	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("token has no email claim")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email is not verified")
	}

	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	if name == "" {
		name = email
	}

	return &models.Identity{Email: email, Name: name, Role: roleFromClaim(claims[roleClaim])}, nil
}

// roleFromClaim accepts a single role or a list of roles. Admin wins over any other role.
func roleFromClaim(v any) string {
	var candidates []string
	switch t := v.(type) {
	case string:
		candidates = []string{t}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				candidates = append(candidates, s)
			}
		}
	}

	role := ""
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if !models.ValidRole(c) {
			continue
		}
		if c == models.RoleAdmin {
			return c
		}
		if role == "" {
			role = c
		}
	}
	return role
}
