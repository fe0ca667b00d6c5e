package models

import "time"

// Store is one physical hotel location of the chain.
type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:191;not null" json:"name"`
	Address   *string   `gorm:"size:500" json:"address"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
