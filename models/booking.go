package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Status     BookingStatus `gorm:"size:32;not null;index" json:"status"`
	CustomerID uint          `gorm:"not null;index" json:"customerId"`
	StoreID    uint          `gorm:"not null;index" json:"storeId"`
	RoomTypeID uint          `gorm:"not null;index" json:"roomTypeId"`

	// date-only values, normalized to UTC midnight; CheckOut > CheckIn
	CheckIn  time.Time `gorm:"type:date;not null;index" json:"checkIn"`
	CheckOut time.Time `gorm:"type:date;not null;index" json:"checkOut"`

	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPrice"`

	CreatedByRole      Role  `gorm:"size:16;not null" json:"createdByRole"`
	CreatedByAdminID   *uint `json:"createdByAdminId"`
	CreatedByStaffID   *uint `json:"createdByStaffId"`
	ConfirmedByAdminID *uint `json:"confirmedByAdminId"`
	ConfirmedByStaffID *uint `json:"confirmedByStaffId"`

	CancelReason *string    `gorm:"size:500" json:"cancelReason"`
	CancelledAt  *time.Time `json:"cancelledAt"`
	CheckedInAt  *time.Time `json:"checkedInAt"`
	CheckedOutAt *time.Time `json:"checkedOutAt"`
	IsReviewed   bool       `gorm:"not null;default:false" json:"isReviewed"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Customer     *Customer      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Store        *Store         `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	RoomType     *RoomType      `gorm:"foreignKey:RoomTypeID" json:"roomType,omitempty"`
	BookingRooms []BookingRoom  `gorm:"foreignKey:BookingID" json:"bookingRooms,omitempty"`
	Review       *BookingReview `gorm:"foreignKey:BookingID" json:"review,omitempty"`
}

// Nights is the number of nights between check-in and check-out.
func (b Booking) Nights() int {
	return NightsBetween(b.CheckIn, b.CheckOut)
}

func (b Booking) RoomIDs() []uint {
	ids := make([]uint, 0, len(b.BookingRooms))
	for _, br := range b.BookingRooms {
		ids = append(ids, br.RoomID)
	}
	return ids
}

func NightsBetween(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}
