package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hotel-booking/models"
)

type RoomTypeService struct {
	DB *gorm.DB
}

func NewRoomTypeService(db *gorm.DB) *RoomTypeService {
	return &RoomTypeService{DB: db}
}

type RoomTypeInput struct {
	Name        *string
	Description *string
	BasePrice   *decimal.Decimal
	Capacity    *int
	Amenities   *[]string
	IsActive    *bool
}

func normalizeAmenities(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (in RoomTypeInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return Validation("房型名称不能为空")
	}
	if in.BasePrice != nil && in.BasePrice.IsNegative() {
		return Validation("价格不能为负数")
	}
	if in.Capacity != nil && *in.Capacity < 1 {
		return Validation("可住人数至少为1")
	}
	return nil
}

func roomTypeNameTaken(db *gorm.DB, name string, excludeID uint) (bool, error) {
	var n int64
	q := db.Model(&models.RoomType{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns room types ordered by price; inactive ones only when asked.
func (s *RoomTypeService) List(ctx context.Context, includeInactive bool) ([]models.RoomType, error) {
	q := s.DB.WithContext(ctx)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	types := []models.RoomType{}
	if err := q.Order("base_price ASC, name ASC").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve room types: %w", err)
	}
	return types, nil
}

func (s *RoomTypeService) Get(ctx context.Context, id uint) (*models.RoomType, error) {
	var rt models.RoomType
	if err := s.DB.WithContext(ctx).First(&rt, id).Error; err != nil {
		return nil, notFound(err, ErrRoomTypeNotFound)
	}
	return &rt, nil
}

func (s *RoomTypeService) Create(ctx context.Context, in RoomTypeInput) (*models.RoomType, error) {
	if in.Name == nil || in.BasePrice == nil {
		return nil, Validation("房型名称和价格为必填项")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(*in.Name)

	db := s.DB.WithContext(ctx)
	taken, err := roomTypeNameTaken(db, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateName.WithMessage("房型名称已存在")
	}

	rt := models.RoomType{
		Name:        name,
		Description: in.Description,
		BasePrice:   *in.BasePrice,
		Capacity:    2,
		Amenities:   []string{},
	}
	if in.Capacity != nil {
		rt.Capacity = *in.Capacity
	}
	if in.Amenities != nil {
		rt.Amenities = normalizeAmenities(*in.Amenities)
	}
	if err := db.Create(&rt).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateName.WithMessage("房型名称已存在")
		}
		return nil, fmt.Errorf("failed to create room type: %w", err)
	}
	// default:true swallows a false on insert
	if in.IsActive != nil && !*in.IsActive {
		if err := db.Model(&rt).Update("is_active", false).Error; err != nil {
			return nil, err
		}
		rt.IsActive = false
	}
	return &rt, nil
}

func (s *RoomTypeService) Update(ctx context.Context, id uint, in RoomTypeInput) (*models.RoomType, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	rt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != rt.Name {
			taken, err := roomTypeNameTaken(db, name, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrDuplicateName.WithMessage("房型名称已存在")
			}
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.BasePrice != nil {
		updates["base_price"] = *in.BasePrice
	}
	if in.Capacity != nil {
		updates["capacity"] = *in.Capacity
	}
	if in.Amenities != nil {
		rt.Amenities = normalizeAmenities(*in.Amenities)
		updates["amenities"] = rt.Amenities
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := db.Model(&models.RoomType{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, ErrDuplicateName.WithMessage("房型名称已存在")
			}
			return nil, fmt.Errorf("failed to update room type: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete is refused while any room or booking still references the type.
func (s *RoomTypeService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.RoomType
		if err := tx.First(&rt, id).Error; err != nil {
			return notFound(err, ErrRoomTypeNotFound)
		}
		var rooms, bookings int64
		if err := tx.Model(&models.Room{}).Where("room_type_id = ?", id).Count(&rooms).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).Where("room_type_id = ?", id).Count(&bookings).Error; err != nil {
			return err
		}
		if rooms > 0 || bookings > 0 {
			return ErrRoomTypeInUse.WithMessage("该房型下有 %d 个房间和 %d 个订单，无法删除", rooms, bookings)
		}
		return tx.Delete(&rt).Error
	})
}
