package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hotel-booking/models"
	"hotel-booking/services"
)

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type createBookingRequest struct {
	CustomerID uint             `json:"customerId" binding:"required"`
	StoreID    uint             `json:"storeId" binding:"required"`
	RoomTypeID uint             `json:"roomTypeId" binding:"required"`
	CheckIn    string           `json:"checkIn" binding:"required"`
	CheckOut   string           `json:"checkOut" binding:"required"`
	TotalPrice *decimal.Decimal `json:"totalPrice"`
	RoomIDs    []uint           `json:"roomIds"`
}

type updateBookingRequest struct {
	Status       *models.BookingStatus `json:"status"`
	CancelReason *string               `json:"cancelReason"`
	CheckIn      *string               `json:"checkIn"`
	CheckOut     *string               `json:"checkOut"`
	TotalPrice   *decimal.Decimal      `json:"totalPrice"`
}

type assignRoomsRequest struct {
	RoomIDs []uint `json:"roomIds" binding:"required"`
}

// bookingFilter reads the list filters shared by the admin and front-desk
// booking lists. Malformed dates are rejected, other bad values ignored.
func bookingFilter(c *gin.Context) (services.BookingFilter, bool) {
	f := services.BookingFilter{
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 10),
		StoreID:      queryUint(c, "storeId"),
		RoomTypeID:   queryUint(c, "roomTypeId"),
		CustomerName: strings.TrimSpace(c.Query("customerName")),
	}
	if s := models.BookingStatus(strings.ToUpper(c.Query("status"))); s.Valid() {
		f.Status = &s
	}
	if r := models.Role(strings.ToUpper(c.Query("createdByRole"))); r.Valid() {
		f.CreatedByRole = &r
	}
	var err error
	if f.CheckInDate, err = queryDate(c, "checkInDate"); err != nil {
		badRequest(c, "日期格式应为 YYYY-MM-DD")
		return f, false
	}
	if f.CheckOutDate, err = queryDate(c, "checkOutDate"); err != nil {
		badRequest(c, "日期格式应为 YYYY-MM-DD")
		return f, false
	}
	return f, true
}

// ---------------------------------------------------------------------------
// handlers
// ---------------------------------------------------------------------------

// ListBookings (GET /api/admin/bookings)
func (ctrl *BookingController) ListBookings(c *gin.Context) {
	f, ok := bookingFilter(c)
	if !ok {
		return
	}
	page, err := ctrl.BookingSvc.ListBookings(c.Request.Context(), principal(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateBooking (POST /api/admin/bookings) books on behalf of a customer.
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "客户、门店、房型和入住日期为必填项")
		return
	}
	b, err := ctrl.BookingSvc.CreateStaffBooking(c.Request.Context(), principal(c), services.StaffBookingInput{
		CustomerID: req.CustomerID,
		StoreID:    req.StoreID,
		RoomTypeID: req.RoomTypeID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		TotalPrice: req.TotalPrice,
		RoomIDs:    req.RoomIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GetBooking (GET /api/admin/bookings/:id)
func (ctrl *BookingController) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := ctrl.BookingSvc.GetBooking(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// UpdateBooking (PATCH /api/admin/bookings/:id)
func (ctrl *BookingController) UpdateBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误")
		return
	}
	if req.Status != nil {
		s := models.BookingStatus(strings.ToUpper(string(*req.Status)))
		if !s.Valid() {
			badRequest(c, "无效的订单状态")
			return
		}
		req.Status = &s
	}
	b, err := ctrl.BookingSvc.UpdateBooking(c.Request.Context(), principal(c), id, services.UpdateBookingInput{
		Status:       req.Status,
		CancelReason: req.CancelReason,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		TotalPrice:   req.TotalPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// DeleteBooking (DELETE /api/admin/bookings/:id)
func (ctrl *BookingController) DeleteBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.BookingSvc.DeleteBooking(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AssignRooms (POST /api/admin/bookings/:id/assign-rooms)
func (ctrl *BookingController) AssignRooms(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req assignRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.RoomIDs) == 0 {
		badRequest(c, "请选择要分配的房间")
		return
	}
	b, err := ctrl.BookingSvc.AssignRooms(c.Request.Context(), principal(c), id, req.RoomIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// AvailableRooms (GET /api/admin/bookings/:id/available-rooms?roomTypeId)
func (ctrl *BookingController) AvailableRooms(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := ctrl.BookingSvc.AvailableRoomsForBooking(c.Request.Context(), principal(c), id, queryUint(c, "roomTypeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
