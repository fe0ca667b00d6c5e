package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-booking/auth"
	"hotel-booking/models"
	"hotel-booking/utils"
)

const principalKey = "principal"

// PrincipalResolver loads the active user behind a verified token.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uint, role models.Role) (*auth.Principal, error)
}

type Sessions struct {
	Manager  *auth.SessionManager
	Resolver PrincipalResolver
}

func NewSessions(m *auth.SessionManager, r PrincipalResolver) *Sessions {
	return &Sessions{Manager: m, Resolver: r}
}

func tokenFromRequest(c *gin.Context, scope auth.Scope) string {
	if v, err := c.Cookie(auth.CookieName(scope)); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// principalFor verifies the scope's token and resolves its user. A nil
// principal with a nil error means no session was presented.
func (s *Sessions) principalFor(c *gin.Context, scope auth.Scope) (*auth.Principal, error) {
	token := tokenFromRequest(c, scope)
	if token == "" {
		return nil, nil
	}
	claims, err := s.Manager.Parse(token)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(claims.Role) {
		return nil, auth.ErrInvalidSession
	}
	return s.Resolver.ResolvePrincipal(c.Request.Context(), claims.UserID, claims.Role)
}

// Principal resolves the session of the given scope without touching the
// request context. Used by handlers whose scope is chosen per request.
func (s *Sessions) Principal(c *gin.Context, scope auth.Scope) (*auth.Principal, error) {
	return s.principalFor(c, scope)
}

// Optional attaches the principal when a valid session exists and never
// rejects the request.
func (s *Sessions) Optional(scope auth.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, err := s.principalFor(c, scope); err == nil && p != nil {
			c.Set(principalKey, p)
		}
		c.Next()
	}
}

// Require rejects requests without a valid session of the scope, or whose
// role is not in roles (any role of the scope when roles is empty).
func (s *Sessions) Require(scope auth.Scope, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := s.principalFor(c, scope)
		if err != nil || p == nil {
			msg := "未登录或登录已过期"
			if errors.Is(err, auth.ErrExpiredSession) {
				msg = "登录已过期，请重新登录"
			}
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthorized", msg)
			return
		}
		if len(roles) > 0 && !hasRole(p.Role, roles) {
			utils.JSONError(c, http.StatusForbidden, "error.forbidden", "权限不足")
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func hasRole(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CurrentPrincipal returns the request's principal or nil.
func CurrentPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// SetPrincipal is used by handlers that authenticate inline (login, register).
func SetPrincipal(c *gin.Context, p *auth.Principal) {
	c.Set(principalKey, p)
}
