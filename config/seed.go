package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hotel-booking/models"
)

const (
	DefaultAdminEmail    = "admin@hotel.local"
	DefaultAdminPassword = "admin123"
)

// SeedDatabase creates the default admin and room types on an empty database.
func SeedDatabase(db *gorm.DB, log *zap.Logger) error {
	var adminCount int64
	if err := db.Model(&models.Admin{}).Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount == 0 {
		name := "Admin User"
		if _, err := UpsertAdmin(db, DefaultAdminEmail, DefaultAdminPassword, &name); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Info("default admin seeded", zap.String("email", DefaultAdminEmail))
	}

	var rtCount int64
	if err := db.Model(&models.RoomType{}).Count(&rtCount).Error; err != nil {
		return err
	}
	if rtCount == 0 {
		desc := func(s string) *string { return &s }
		roomTypes := []models.RoomType{
			{Name: "Standard", Description: desc("Standard Room"), BasePrice: decimal.NewFromInt(300), Capacity: 2, Amenities: datatypes.JSONSlice[string]{"wifi"}, IsActive: true},
			{Name: "Superior", Description: desc("Superior Room"), BasePrice: decimal.NewFromInt(400), Capacity: 3, Amenities: datatypes.JSONSlice[string]{"wifi", "breakfast"}, IsActive: true},
			{Name: "Deluxe", Description: desc("Deluxe Room"), BasePrice: decimal.NewFromInt(550), Capacity: 4, Amenities: datatypes.JSONSlice[string]{"wifi", "breakfast", "bathtub"}, IsActive: true},
			{Name: "Connecting", Description: desc("Connecting Room"), BasePrice: decimal.NewFromInt(700), Capacity: 5, Amenities: datatypes.JSONSlice[string]{"wifi", "breakfast"}, IsActive: true},
		}
		if err := db.Create(&roomTypes).Error; err != nil {
			return fmt.Errorf("seed room types: %w", err)
		}
		log.Info("room types seeded", zap.Int("count", len(roomTypes)))
	}
	return nil
}

// UpsertAdmin creates the admin or resets its password, name and active flag.
func UpsertAdmin(db *gorm.DB, email, password string, name *string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var admin models.Admin
	err = db.Where("email = ?", email).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = models.Admin{Email: email, PasswordHash: string(hash), Name: name, IsActive: true}
		if err := db.Create(&admin).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := db.Model(&admin).Updates(map[string]interface{}{
			"password_hash": string(hash),
			"name":          name,
			"is_active":     true,
		}).Error; err != nil {
			return nil, err
		}
	}
	return &admin, nil
}
