package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ErrClaims is returned when token claims cannot be decoded.
var ErrClaims = errors.New("auth: invalid token claims")

// OIDCVerifier verifies bearer tokens issued by an OIDC provider such as
// Keycloak and reads realm and client roles from them.
type OIDCVerifier struct {
	verifier     *oidc.IDTokenVerifier
	clientID     string
	operatorRole string
	viewerRole   string
}

// NewOIDCVerifier discovers the provider at issuerURL.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID, audience, operatorRole, viewerRole string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("auth: discover %s: %w", issuerURL, err)
	}

	cfg := &oidc.Config{ClientID: audience}
	if audience == "" {
		cfg.ClientID = clientID
	}
	if cfg.ClientID == "" {
		cfg.SkipClientIDCheck = true
	}

	return &OIDCVerifier{
		verifier:     provider.Verifier(cfg),
		clientID:     clientID,
		operatorRole: operatorRole,
		viewerRole:   viewerRole,
	}, nil
}

// VerifyToken checks the signature, issuer, audience and expiry of token.
func (v *OIDCVerifier) VerifyToken(ctx context.Context, token string) (*oidc.IDToken, error) {
	return v.verifier.Verify(ctx, token)
}

type roleClaims struct {
	Roles       []string `json:"roles"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	ResourceAccess map[string]struct {
		Roles []string `json:"roles"`
	} `json:"resource_access"`
}

// HasRole reports whether the token grants role. An empty role is always
// granted.
func (v *OIDCVerifier) HasRole(token *oidc.IDToken, role string) (bool, error) {
	if role == "" {
		return true, nil
	}
	var c roleClaims
	if err := token.Claims(&c); err != nil {
		return false, fmt.Errorf("%w: %w", ErrClaims, err)
	}
	return c.has(v.clientID, role), nil
}

func (c roleClaims) has(clientID, role string) bool {
	if slices.Contains(c.Roles, role) || slices.Contains(c.RealmAccess.Roles, role) {
		return true
	}
	if client, ok := c.ResourceAccess[clientID]; ok {
		return slices.Contains(client.Roles, role)
	}
	return false
}
