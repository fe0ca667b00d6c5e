package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-booking/auth"
	"hotel-booking/middleware"
	"hotel-booking/services"
)

type AuthController struct {
	AuthSvc  *services.AuthService
	Manager  *auth.SessionManager
	Sessions *middleware.Sessions
}

func NewAuthController(svc *services.AuthService, m *auth.SessionManager, s *middleware.Sessions) *AuthController {
	return &AuthController{AuthSvc: svc, Manager: m, Sessions: s}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
}

type profileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// startSession issues the token and sets the cookie of the principal's scope.
func (ctrl *AuthController) startSession(c *gin.Context, p *auth.Principal, status int) {
	token, err := ctrl.Manager.Issue(p.ID, p.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	http.SetCookie(c.Writer, ctrl.Manager.NewCookie(auth.ScopeFor(p.Role), token))
	middleware.SetPrincipal(c, p)
	c.JSON(status, gin.H{"user": p})
}

// Login (POST /api/auth/login) accepts any principal type.
func (ctrl *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请输入邮箱和密码")
		return
	}
	p, err := ctrl.AuthSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.startSession(c, p, http.StatusOK)
}

// ClientLogin (POST /api/client/auth/login) accepts customers only.
func (ctrl *AuthController) ClientLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请输入邮箱和密码")
		return
	}
	p, err := ctrl.AuthSvc.LoginCustomer(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.startSession(c, p, http.StatusOK)
}

// Register (POST /api/auth/register)
func (ctrl *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请输入邮箱和密码")
		return
	}
	p, err := ctrl.AuthSvc.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.startSession(c, p, http.StatusCreated)
}

// Me (GET /api/auth/me?scope=admin|client) returns the session's user.
func (ctrl *AuthController) Me(c *gin.Context) {
	scope := auth.ScopeAdmin
	if c.Query("scope") == string(auth.ScopeClient) {
		scope = auth.ScopeClient
	}
	p, err := ctrl.Sessions.Principal(c, scope)
	if err != nil || p == nil {
		respondError(c, services.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p})
}

// Logout clears both session cookies.
func (ctrl *AuthController) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, ctrl.Manager.ClearCookie(auth.ScopeAdmin))
	http.SetCookie(c.Writer, ctrl.Manager.ClearCookie(auth.ScopeClient))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ctrl *AuthController) GetProfile(c *gin.Context) {
	customer, err := ctrl.AuthSvc.GetProfile(c.Request.Context(), principal(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": customer})
}

func (ctrl *AuthController) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	customer, err := ctrl.AuthSvc.UpdateProfile(c.Request.Context(), principal(c).ID, services.ProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": customer})
}
