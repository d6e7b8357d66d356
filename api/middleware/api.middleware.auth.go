package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/TomSft15/TelloDroneHub/internal/auth"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
)

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

type KeycloakMiddleware struct {
	client *gocloak.GoCloak
	config KeycloakConfig
}

func NewKeycloakMiddleware(config KeycloakConfig) *KeycloakMiddleware {
	return &KeycloakMiddleware{
		client: gocloak.NewClient(config.URL),
		config: config,
	}
}

// Authenticate validates the token and adds the caller identity to context
func (k *KeycloakMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		user, err := k.ResolveUser(r, token)
		if err != nil {
			handleError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// ResolveUser verifies a bearer token and builds the caller identity. Also
// used by the websocket endpoint, where the token arrives as a query
// parameter instead of a header.
func (k *KeycloakMiddleware) ResolveUser(r *http.Request, token string) (*auth.User, error) {
	result, err := k.client.RetrospectToken(r.Context(), token, k.config.ClientID, k.config.ClientSecret, k.config.Realm)
	if err != nil || result.Active == nil || !*result.Active {
		return nil, errors.NewAuthError("invalid token", err)
	}

	roles, err := k.client.GetRealmRoles(r.Context(), token, k.config.Realm, gocloak.GetRoleParams{})
	if err != nil {
		return nil, errors.NewAuthError("failed to get realm roles", err)
	}

	claims, err := k.client.GetUserInfo(r.Context(), token, k.config.Realm)
	if err != nil {
		return nil, errors.NewAuthError("failed to get user info", err)
	}

	return createUser(claims, roles), nil
}

// RequireRoles middleware ensures user has required roles
func (k *KeycloakMiddleware) RequireRoles(roles []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				handleError(w, errors.NewAuthError("no user context found", nil))
				return
			}

			if !hasRequiredRoles(user.Roles, roles) {
				handleError(w, errors.NewAuthorizationError("insufficient permissions", nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Helper functions

func createUser(userInfo *gocloak.UserInfo, roles []*gocloak.Role) *auth.User {
	user := &auth.User{
		Roles: extractRoles(roles),
	}
	if userInfo.Sub != nil {
		user.ID = *userInfo.Sub
	}
	if userInfo.PreferredUsername != nil {
		user.Username = *userInfo.PreferredUsername
	}
	if userInfo.Email != nil {
		user.Email = *userInfo.Email
	}
	return user
}

func extractToken(r *http.Request) string {
	bearerToken := r.Header.Get("Authorization")
	if len(strings.Split(bearerToken, " ")) == 2 {
		return strings.Split(bearerToken, " ")[1]
	}
	// Websocket clients pass the token as a query parameter
	return r.URL.Query().Get("token")
}

func extractRoles(roles []*gocloak.Role) []string {
	var roleStrings []string
	for _, role := range roles {
		if role.Name != nil {
			roleStrings = append(roleStrings, *role.Name)
		}
	}
	return roleStrings
}

func hasRequiredRoles(userRoles, requiredRoles []string) bool {
	if len(requiredRoles) == 0 {
		return true
	}

	roleMap := make(map[string]bool)
	for _, role := range userRoles {
		roleMap[role] = true
	}

	for _, required := range requiredRoles {
		if required == "*" {
			return true
		}
		if !roleMap[required] {
			return false
		}
	}
	return true
}

func handleError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*errors.APIError)
	if !ok {
		apiErr = errors.NewInternalError("internal server error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
}
