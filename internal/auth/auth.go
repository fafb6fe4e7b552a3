package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Role is the access level of a caller.
type Role string

const (
	// RoleViewer may read the device list and the update journal.
	RoleViewer Role = "viewer"
	// RoleOperator may also reveal, update, confirm and rescan.
	RoleOperator Role = "operator"
)

// Auth enforces both API-key and OIDC/JWT based authentication.
type Auth struct {
	ViewerKey    string
	OperatorKey  string
	OIDCEnabled  bool
	OIDCVerifier *OIDCVerifier
}

// RequireOperator admits callers holding the operator key or role.
func (a Auth) RequireOperator(next http.HandlerFunc) http.HandlerFunc {
	return a.require(RoleOperator, next)
}

// RequireViewer admits viewers and operators.
func (a Auth) RequireViewer(next http.HandlerFunc) http.HandlerFunc {
	return a.require(RoleViewer, next)
}

func (a Auth) require(role Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.OIDCEnabled && a.OIDCVerifier != nil && a.verifyJWT(r, role) {
			log.Debug().
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Str("auth_type", "jwt").
				Str("role", string(role)).
				Msg("Authentication successful via JWT")
			next(w, r)
			return
		}

		if a.keyGrants(r, role) {
			log.Debug().
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Str("auth_type", "api_key").
				Str("role", string(role)).
				Msg("Authentication successful via API key")
			next(w, r)
			return
		}

		log.Warn().
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Str("remote_addr", r.RemoteAddr).
			Str("role", string(role)).
			Msg("Authentication failed")
		http.Error(w, "unauthorized ("+string(role)+")", http.StatusUnauthorized)
	}
}

// keyGrants checks the X-Api-Key header. The operator key also grants
// viewer access.
func (a Auth) keyGrants(r *http.Request, role Role) bool {
	key := r.Header.Get("X-Api-Key")
	if key == "" {
		return false
	}
	if a.OperatorKey != "" && key == a.OperatorKey {
		return true
	}
	return role == RoleViewer && a.ViewerKey != "" && key == a.ViewerKey
}

// verifyJWT validates the bearer token and checks it carries role. An
// operator token also satisfies a viewer requirement.
func (a Auth) verifyJWT(r *http.Request, role Role) bool {
	token := ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return false
	}

	idToken, err := a.OIDCVerifier.VerifyToken(r.Context(), token)
	if err != nil {
		log.Warn().
			Err(err).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("JWT verification failed")
		return false
	}

	required := []string{a.OIDCVerifier.operatorRole}
	if role == RoleViewer {
		required = append(required, a.OIDCVerifier.viewerRole)
	}
	for _, want := range required {
		ok, err := a.OIDCVerifier.HasRole(idToken, want)
		if err != nil {
			log.Error().Err(err).Str("required_role", want).Msg("Failed to check role in JWT")
			return false
		}
		if ok {
			return true
		}
	}

	log.Warn().
		Str("role", string(role)).
		Str("path", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Msg("User missing required role")
	return false
}

// ExtractBearerToken returns the token of a "Bearer <token>" header value.
func ExtractBearerToken(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
