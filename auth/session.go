package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hotel-booking/models"
)

// Session scopes. Admin sessions carry ADMIN/STAFF principals, client
// sessions carry CUSTOMER principals.
type Scope string

const (
	ScopeAdmin  Scope = "admin"
	ScopeClient Scope = "client"

	AdminCookieName  = "hotel_admin_session"
	ClientCookieName = "hotel_client_session"

	DefaultSessionTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session has expired")
	ErrEmptySecret    = errors.New("session secret cannot be empty")
	ErrWeakSecret     = errors.New("session secret must be at least 32 characters")
)

// Claims is the signed session payload.
type Claims struct {
	UserID uint        `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	SecureCookie bool
}

type SessionManager struct {
	cfg SessionConfig
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}
	if len(cfg.Secret) < 32 {
		return nil, ErrWeakSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	return &SessionManager{cfg: cfg}, nil
}

// ScopeFor maps a role to the cookie scope it lives in.
func ScopeFor(role models.Role) Scope {
	if role == models.RoleCustomer {
		return ScopeClient
	}
	return ScopeAdmin
}

func CookieName(scope Scope) string {
	if scope == ScopeClient {
		return ClientCookieName
	}
	return AdminCookieName
}

// Allows reports whether a role may hold a session of the given scope.
func (s Scope) Allows(role models.Role) bool {
	switch s {
	case ScopeAdmin:
		return role == models.RoleAdmin || role == models.RoleStaff
	case ScopeClient:
		return role == models.RoleCustomer
	}
	return false
}

func (m *SessionManager) TTL() time.Duration { return m.cfg.TTL }

func (m *SessionManager) Issue(userID uint, role models.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.Secret))
}

func (m *SessionManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSession
		}
		return nil, ErrInvalidSession
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.Valid() || claims.UserID == 0 {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// NewCookie builds the httpOnly, SameSite=Lax session cookie for a token.
func (m *SessionManager) NewCookie(scope Scope, token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName(scope),
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		Expires:  time.Now().Add(m.cfg.TTL),
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *SessionManager) ClearCookie(scope Scope) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName(scope),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
