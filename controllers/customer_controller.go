package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-booking/services"
	"hotel-booking/utils"
)

// CustomerController serves the /api/client self-service surface.
type CustomerController struct {
	BookingSvc      *services.BookingService
	ReviewSvc       *services.ReviewService
	AvailabilitySvc *services.AvailabilityService
}

func NewCustomerController(bookings *services.BookingService, reviews *services.ReviewService, availability *services.AvailabilityService) *CustomerController {
	return &CustomerController{BookingSvc: bookings, ReviewSvc: reviews, AvailabilitySvc: availability}
}

type clientBookingRequest struct {
	StoreID    uint   `json:"storeId" binding:"required"`
	RoomTypeID uint   `json:"roomTypeId" binding:"required"`
	CheckIn    string `json:"checkIn" binding:"required"`
	CheckOut   string `json:"checkOut" binding:"required"`
}

type cancelRequest struct {
	Reason *string `json:"reason"`
}

type reviewRequest struct {
	BookingID uint    `json:"bookingId" binding:"required"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment"`
}

type filterStoresRequest struct {
	CheckIn      string   `json:"checkIn" binding:"required"`
	CheckOut     string   `json:"checkOut" binding:"required"`
	RoomTypeName string   `json:"roomTypeName"`
	Amenities    []string `json:"amenities"`
}

// splitList accepts repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// RoomTypes (GET /api/client/room-types?storeId&checkIn&checkOut)
func (ctrl *CustomerController) RoomTypes(c *gin.Context) {
	storeID := queryUint(c, "storeId")
	if storeID == nil {
		badRequest(c, "请选择门店")
		return
	}
	checkIn, err := utils.ParseDate(c.Query("checkIn"))
	if err != nil {
		badRequest(c, "请选择入住日期")
		return
	}
	checkOut, err := utils.ParseDate(c.Query("checkOut"))
	if err != nil {
		badRequest(c, "请选择离店日期")
		return
	}
	types, err := ctrl.AvailabilitySvc.RoomTypeAvailability(c.Request.Context(), services.AvailabilityQuery{
		StoreID:   *storeID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Amenities: splitList(c.QueryArray("amenities")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomTypes": types})
}

// FilterStores (POST /api/client/filter-stores)
func (ctrl *CustomerController) FilterStores(c *gin.Context) {
	var req filterStoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请选择入住和离店日期")
		return
	}
	checkIn, err := utils.ParseDate(req.CheckIn)
	if err != nil {
		badRequest(c, "入住日期格式不正确")
		return
	}
	checkOut, err := utils.ParseDate(req.CheckOut)
	if err != nil {
		badRequest(c, "离店日期格式不正确")
		return
	}
	stores, err := ctrl.AvailabilitySvc.SearchStores(c.Request.Context(), services.StoreSearchQuery{
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		RoomTypeName: strings.TrimSpace(req.RoomTypeName),
		Amenities:    splitList(req.Amenities),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// ListBookings (GET /api/client/bookings)
func (ctrl *CustomerController) ListBookings(c *gin.Context) {
	list, err := ctrl.BookingSvc.ListCustomerBookings(c.Request.Context(), principal(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// CreateBooking (POST /api/client/bookings)
func (ctrl *CustomerController) CreateBooking(c *gin.Context) {
	var req clientBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "门店、房型和入住日期为必填项")
		return
	}
	b, err := ctrl.BookingSvc.CreateCustomerBooking(c.Request.Context(), principal(c).ID, services.CustomerBookingInput{
		StoreID:    req.StoreID,
		RoomTypeID: req.RoomTypeID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// CancelBooking (POST /api/client/bookings/:id/cancel)
func (ctrl *CustomerController) CancelBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req cancelRequest
	// the body is optional
	_ = c.ShouldBindJSON(&req)
	b, err := ctrl.BookingSvc.CancelByCustomer(c.Request.Context(), principal(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// SubmitReview (POST /api/client/bookings/review)
func (ctrl *CustomerController) SubmitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请选择要评价的订单")
		return
	}
	review, err := ctrl.ReviewSvc.SubmitReview(c.Request.Context(), principal(c), services.ReviewInput{
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}
