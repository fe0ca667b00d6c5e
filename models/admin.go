package models

import "time"

type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // bcrypt, never returned
	Name         *string   `gorm:"size:255" json:"name"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
