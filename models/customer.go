package models

import "time"

type Customer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         *string   `gorm:"size:255" json:"name"`
	Phone        *string   `gorm:"size:32" json:"phone"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
