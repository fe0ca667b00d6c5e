package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-booking/models"
	"hotel-booking/services"
)

// StaffController serves the front desk under /api/staff/store. Staff
// always work on their own store; admins pick one with ?storeId.
type StaffController struct {
	StoreSvc   *services.StoreService
	BookingSvc *services.BookingService
	RoomSvc    *services.RoomService
}

func NewStaffController(stores *services.StoreService, bookings *services.BookingService, rooms *services.RoomService) *StaffController {
	return &StaffController{StoreSvc: stores, BookingSvc: bookings, RoomSvc: rooms}
}

type bookingActionRequest struct {
	Action  string  `json:"action" binding:"required"`
	RoomIDs []uint  `json:"roomIds"`
	Reason  *string `json:"reason"`
}

type roomStatusRequest struct {
	Status models.RoomStatus `json:"status" binding:"required"`
}

func (ctrl *StaffController) storeID(c *gin.Context) (uint, bool) {
	id, err := services.ResolveStaffStore(principal(c), queryUint(c, "storeId"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return id, true
}

// Store (GET /api/staff/store)
func (ctrl *StaffController) Store(c *gin.Context) {
	storeID, ok := ctrl.storeID(c)
	if !ok {
		return
	}
	summary, err := ctrl.StoreSvc.Summary(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Bookings (GET /api/staff/store/bookings)
func (ctrl *StaffController) Bookings(c *gin.Context) {
	storeID, ok := ctrl.storeID(c)
	if !ok {
		return
	}
	f, ok := bookingFilter(c)
	if !ok {
		return
	}
	f.StoreID = &storeID
	page, err := ctrl.BookingSvc.ListBookings(c.Request.Context(), principal(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// BookingAction (PATCH /api/staff/store/bookings/:id)
func (ctrl *StaffController) BookingAction(c *gin.Context) {
	storeID, ok := ctrl.storeID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req bookingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请指定操作")
		return
	}
	ctx := c.Request.Context()
	p := principal(c)

	current, err := ctrl.BookingSvc.GetBooking(ctx, p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if current.StoreID != storeID {
		respondError(c, services.ErrBookingNotFound)
		return
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if (action == "assign" || action == "assign_only") && len(req.RoomIDs) == 0 {
		badRequest(c, "请选择要分配的房间")
		return
	}
	b, err := ctrl.BookingSvc.PerformAction(ctx, p, id, action, req.RoomIDs, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// Rooms (GET /api/staff/store/rooms)
func (ctrl *StaffController) Rooms(c *gin.Context) {
	storeID, ok := ctrl.storeID(c)
	if !ok {
		return
	}
	rooms, err := ctrl.RoomSvc.StaffRooms(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// RoomStatus (PUT /api/staff/store/rooms/:id/status)
func (ctrl *StaffController) RoomStatus(c *gin.Context) {
	storeID, ok := ctrl.storeID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req roomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请指定房间状态")
		return
	}
	status := models.RoomStatus(strings.ToUpper(string(req.Status)))
	ctx := c.Request.Context()
	if _, err := ctrl.RoomSvc.Get(ctx, storeID, id); err != nil {
		respondError(c, err)
		return
	}
	room, err := ctrl.RoomSvc.SetStatus(ctx, principal(c), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}
