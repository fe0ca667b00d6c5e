package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Room struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	StoreID    uint                `gorm:"not null;uniqueIndex:idx_store_room_no" json:"storeId"`
	RoomNo     string              `gorm:"size:50;not null;uniqueIndex:idx_store_room_no" json:"roomNo"`
	Floor      int                 `gorm:"not null" json:"floor"`
	RoomTypeID uint                `gorm:"not null;index" json:"roomTypeId"`
	BasePrice  decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"basePrice"`
	Capacity   *int                `json:"capacity"`
	Status     RoomStatus          `gorm:"size:32;not null;default:AVAILABLE;index" json:"status"`
	IsActive   bool                `gorm:"not null;default:true" json:"isActive"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`

	Store    *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"roomType,omitempty"`
}

// NightlyRate is the room's own price override or, when unset, the room type price.
func (r Room) NightlyRate(rt RoomType) decimal.Decimal {
	if r.BasePrice.Valid {
		return r.BasePrice.Decimal
	}
	return rt.BasePrice
}
