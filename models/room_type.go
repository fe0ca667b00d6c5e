package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RoomType is global to the chain; rooms of every store reference it.
type RoomType struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	Name        string                      `gorm:"uniqueIndex;size:191;not null" json:"name"`
	Description *string                     `gorm:"type:text" json:"description"`
	BasePrice   decimal.Decimal             `gorm:"type:decimal(10,2);not null" json:"basePrice"`
	Capacity    int                         `gorm:"not null;default:2" json:"capacity"`
	Amenities   datatypes.JSONSlice[string] `json:"amenities"`
	IsActive    bool                        `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// HasAmenities reports whether every wanted tag is offered by the room type.
func (rt RoomType) HasAmenities(wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, a := range rt.Amenities {
			if a == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
