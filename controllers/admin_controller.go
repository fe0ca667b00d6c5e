package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-booking/models"
	"hotel-booking/services"
)

// AdminController manages back-office accounts (admins and staff).
type AdminController struct {
	UserSvc *services.UserService
}

func NewAdminController(svc *services.UserService) *AdminController {
	return &AdminController{UserSvc: svc}
}

type createUserRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     *string `json:"name"`
	Role     string  `json:"role" binding:"required"`
	StoreID  *uint   `json:"storeId"`
}

// storeId: null unassigns a staff member, so presence is tracked separately.
type updateUserRequest struct {
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Name     *string      `json:"name"`
	IsActive *bool        `json:"isActive"`
	StoreID  optionalUint `json:"storeId"`
}

func parseRole(raw string) (models.Role, bool) {
	role := models.Role(strings.ToUpper(strings.TrimSpace(raw)))
	if role != models.RoleAdmin && role != models.RoleStaff {
		return "", false
	}
	return role, true
}

func userTarget(c *gin.Context) (models.Role, uint, bool) {
	role, ok := parseRole(c.Param("role"))
	if !ok {
		badRequest(c, "无效的用户角色")
		return "", 0, false
	}
	id, ok := paramID(c, "id")
	if !ok {
		return "", 0, false
	}
	return role, id, true
}

// ListUsers (GET /api/admin/users)
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	users, err := ctrl.UserSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser (GET /api/admin/users/:role/:id)
func (ctrl *AdminController) GetUser(c *gin.Context) {
	role, id, ok := userTarget(c)
	if !ok {
		return
	}
	u, err := ctrl.UserSvc.Get(c.Request.Context(), role, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// CreateUser (POST /api/admin/users)
func (ctrl *AdminController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "邮箱、密码和角色为必填项")
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		badRequest(c, "无效的用户角色")
		return
	}
	u, err := ctrl.UserSvc.Create(c.Request.Context(), services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
		StoreID:  req.StoreID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// UpdateUser (PUT /api/admin/users/:role/:id)
func (ctrl *AdminController) UpdateUser(c *gin.Context) {
	role, id, ok := userTarget(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	in := services.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		IsActive: req.IsActive,
	}
	if req.StoreID.Set {
		if req.StoreID.Value == nil {
			in.ClearStore = true
		} else {
			in.StoreID = req.StoreID.Value
		}
	}
	u, err := ctrl.UserSvc.Update(c.Request.Context(), principal(c), role, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// DeleteUser (DELETE /api/admin/users/:role/:id) deactivates the account.
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	role, id, ok := userTarget(c)
	if !ok {
		return
	}
	if err := ctrl.UserSvc.Deactivate(c.Request.Context(), principal(c), role, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
