package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotel-booking/models"
	"hotel-booking/services"
	"hotel-booking/utils"
)

// RoomController serves /api/admin/stores/:id/rooms.
type RoomController struct {
	RoomSvc *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{RoomSvc: svc}
}

type roomRequest struct {
	RoomNo     *string            `json:"roomNo"`
	Floor      *int               `json:"floor"`
	RoomTypeID *uint              `json:"roomTypeId"`
	BasePrice  optionalDecimal    `json:"basePrice"`
	Capacity   optionalInt        `json:"capacity"`
	Status     *models.RoomStatus `json:"status"`
	IsActive   *bool              `json:"isActive"`
}

func (r roomRequest) input() services.RoomInput {
	in := services.RoomInput{
		RoomNo:     r.RoomNo,
		Floor:      r.Floor,
		RoomTypeID: r.RoomTypeID,
		Status:     r.Status,
		IsActive:   r.IsActive,
		BasePrice:  r.BasePrice.Value,
		Capacity:   r.Capacity.Value,
	}
	in.ClearBasePrice = r.BasePrice.Set && r.BasePrice.Value == nil
	in.ClearCapacity = r.Capacity.Set && r.Capacity.Value == nil
	return in
}

func storeAndRoomIDs(c *gin.Context) (uint, uint, bool) {
	storeID, ok := paramID(c, "id")
	if !ok {
		return 0, 0, false
	}
	roomID, ok := paramID(c, "roomId")
	if !ok {
		return 0, 0, false
	}
	return storeID, roomID, true
}

func (ctrl *RoomController) GetRooms(c *gin.Context) {
	storeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	rooms, err := ctrl.RoomSvc.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (ctrl *RoomController) GetRoom(c *gin.Context) {
	storeID, roomID, ok := storeAndRoomIDs(c)
	if !ok {
		return
	}
	room, err := ctrl.RoomSvc.Get(c.Request.Context(), storeID, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	storeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	room, err := ctrl.RoomSvc.Create(c.Request.Context(), storeID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (ctrl *RoomController) UpdateRoom(c *gin.Context) {
	storeID, roomID, ok := storeAndRoomIDs(c)
	if !ok {
		return
	}
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	room, err := ctrl.RoomSvc.Update(c.Request.Context(), storeID, roomID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// DeleteRoom deactivates the room; its history stays intact.
func (ctrl *RoomController) DeleteRoom(c *gin.Context) {
	storeID, roomID, ok := storeAndRoomIDs(c)
	if !ok {
		return
	}
	if err := ctrl.RoomSvc.Delete(c.Request.Context(), storeID, roomID); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONMessage(c, http.StatusOK, "房间已删除", nil)
}

// SuggestRoomNo (GET /api/admin/stores/:id/rooms/suggest?floor=N)
func (ctrl *RoomController) SuggestRoomNo(c *gin.Context) {
	storeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	floor, err := strconv.Atoi(c.Query("floor"))
	if err != nil {
		badRequest(c, "请提供楼层")
		return
	}
	no, err := ctrl.RoomSvc.SuggestRoomNo(c.Request.Context(), storeID, floor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomNo": no, "floor": floor})
}
