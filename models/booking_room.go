package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingRoom links a booking to a concrete room. NightlyRate is snapshotted
// at assignment so later price edits never touch historical bookings.
type BookingRoom struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	BookingID   uint            `gorm:"not null;index" json:"bookingId"`
	RoomID      uint            `gorm:"not null;index" json:"roomId"`
	NightlyRate decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"nightlyRate"`
	CreatedAt   time.Time       `json:"createdAt"`

	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}
