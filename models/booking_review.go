package models

import "time"

type BookingReview struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookingID  uint      `gorm:"not null;index" json:"bookingId"`
	StoreID    uint      `gorm:"not null;index" json:"storeId"`
	CustomerID uint      `gorm:"not null;index" json:"customerId"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    *string   `gorm:"size:500" json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Booking  *Booking  `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

// AllModels lists every table in parent -> child migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Admin{},
		&Store{},
		&Staff{},
		&Customer{},
		&RoomType{},
		&Room{},
		&Booking{},
		&BookingRoom{},
		&BookingReview{},
	}
}
