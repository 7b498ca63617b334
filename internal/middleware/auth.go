package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"kioskpos/internal/apierror"
	"kioskpos/internal/auth"
	"kioskpos/internal/model"

	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

var (
	ErrMissingToken = errors.New("Accès refusé. Token manquant.")
	ErrInvalidToken = errors.New("Token invalide.")
	ErrNoRole       = errors.New("Rôle non défini.")
)

// ForbiddenError is returned by Authorize when the identity's role is outside the allowed set.
type ForbiddenError struct {
	RequiredRoles model.RoleSet
	UserRole      model.Role
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("Accès refusé. Permissions insuffisantes. (rôle %q, requis %v)", e.UserRole, e.RequiredRoles.Strings())
}

// Authenticate extracts and verifies the bearer token carried by rawHeader.
// Only the "Bearer " prefix is stripped, so a bare "Bearer" is handed to the
// token service as is. An absent header or "Bearer " with nothing after it is
// ErrMissingToken; anything the token service rejects is ErrInvalidToken.
func Authenticate(tokens *auth.TokenService, rawHeader string) (*auth.Identity, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(rawHeader, "Bearer "))
	if raw == "" {
		return nil, ErrMissingToken
	}
	id, err := tokens.Verify(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return id, nil
}

// Authorize checks identity against a static allow-list.
func Authorize(id *auth.Identity, allowed model.RoleSet) error {
	if id == nil || id.Role == "" {
		return ErrNoRole
	}
	if !allowed.Contains(id.Role) {
		return &ForbiddenError{RequiredRoles: allowed, UserRole: id.Role}
	}
	return nil
}

// RequireAuth validates the Bearer token and stores the identity in the context.
func RequireAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := Authenticate(tokens, c.GetHeader("Authorization"))
		switch {
		case errors.Is(err, ErrMissingToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.NewAuth(ErrMissingToken.Error()))
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.NewAuth(ErrInvalidToken.Error()))
			return
		}
		c.Set(IdentityKey, id)
		c.Next()
	}
}

// RequireRole rejects requests whose identity role is not in allowed.
// It must run after RequireAuth.
func RequireRole(allowed ...model.Role) gin.HandlerFunc {
	set := model.Roles(allowed...)
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if id == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.NewAuth("Authentification requise."))
			return
		}
		var forbidden *ForbiddenError
		switch err := Authorize(id, set); {
		case errors.As(err, &forbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, &apierror.AuthError{
				Error:         "Accès refusé. Permissions insuffisantes.",
				RequiredRoles: forbidden.RequiredRoles.Strings(),
				UserRole:      string(forbidden.UserRole),
			})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.NewAuth(err.Error()))
			return
		}
		c.Next()
	}
}

// GetIdentity retrieves the verified identity from the Gin context, or nil.
func GetIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
