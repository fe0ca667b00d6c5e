package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hotel-booking/services"
	"hotel-booking/utils"
)

type RoomTypeController struct {
	RoomTypeSvc *services.RoomTypeService
}

func NewRoomTypeController(svc *services.RoomTypeService) *RoomTypeController {
	return &RoomTypeController{RoomTypeSvc: svc}
}

type roomTypeRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	BasePrice   *decimal.Decimal `json:"basePrice"`
	Capacity    *int             `json:"capacity"`
	Amenities   *[]string        `json:"amenities"`
	IsActive    *bool            `json:"isActive"`
}

func (r roomTypeRequest) input() services.RoomTypeInput {
	return services.RoomTypeInput{
		Name:        r.Name,
		Description: r.Description,
		BasePrice:   r.BasePrice,
		Capacity:    r.Capacity,
		Amenities:   r.Amenities,
		IsActive:    r.IsActive,
	}
}

// GetRoomTypes (GET /api/admin/room-types) includes inactive types.
func (ctrl *RoomTypeController) GetRoomTypes(c *gin.Context) {
	types, err := ctrl.RoomTypeSvc.List(c.Request.Context(), c.DefaultQuery("includeInactive", "true") != "false")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomTypes": types})
}

func (ctrl *RoomTypeController) GetRoomType(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rt, err := ctrl.RoomTypeSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomType": rt})
}

func (ctrl *RoomTypeController) CreateRoomType(c *gin.Context) {
	var req roomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	rt, err := ctrl.RoomTypeSvc.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"roomType": rt})
}

func (ctrl *RoomTypeController) UpdateRoomType(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req roomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	rt, err := ctrl.RoomTypeSvc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomType": rt})
}

func (ctrl *RoomTypeController) DeleteRoomType(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.RoomTypeSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONMessage(c, http.StatusOK, "房型已删除", nil)
}
