package models

import "time"

// Staff is a front-desk user. An unassigned staff member cannot manage any store.
type Staff struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash    string    `gorm:"size:255;not null" json:"-"`
	Name            *string   `gorm:"size:255" json:"name"`
	IsActive        bool      `gorm:"not null;default:true" json:"isActive"`
	AssignedStoreID *uint     `gorm:"index" json:"assignedStoreId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	AssignedStore *Store `gorm:"foreignKey:AssignedStoreID" json:"assignedStore,omitempty"`
}

func (Staff) TableName() string { return "staff" }
