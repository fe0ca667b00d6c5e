package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"hotel-booking/auth"
	"hotel-booking/models"
)

type StoreService struct {
	DB      *gorm.DB
	Ratings RatingProvider
}

func NewStoreService(db *gorm.DB, ratings RatingProvider) *StoreService {
	return &StoreService{DB: db, Ratings: ratings}
}

type StoreInput struct {
	Name     *string
	Address  *string
	IsActive *bool
}

// StoreWithCounts is the admin/staff view of a store.
type StoreWithCounts struct {
	models.Store
	RoomCount          int64 `json:"roomCount"`
	StaffCount         int64 `json:"staffCount"`
	ActiveBookingCount int64 `json:"activeBookingCount"`
}

// PublicStore is the customer view of a store.
type PublicStore struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Address     *string  `json:"address"`
	AvgRating   *float64 `json:"avgRating"`
	ReviewCount int64    `json:"reviewCount"`
}

type countRow struct {
	StoreID uint
	N       int64
}

// countBy groups rows of model by store_id, applying the extra condition.
func countBy(db *gorm.DB, model interface{}, column string, storeIDs []uint, where string, args ...interface{}) (map[uint]int64, error) {
	out := map[uint]int64{}
	if len(storeIDs) == 0 {
		return out, nil
	}
	q := db.Model(model).
		Select(column+" AS store_id, COUNT(*) AS n").
		Where(column+" IN ?", storeIDs)
	if where != "" {
		q = q.Where(where, args...)
	}
	var rows []countRow
	if err := q.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.StoreID] = r.N
	}
	return out, nil
}

func (s *StoreService) withCounts(db *gorm.DB, stores []models.Store) ([]StoreWithCounts, error) {
	ids := make([]uint, 0, len(stores))
	for _, st := range stores {
		ids = append(ids, st.ID)
	}
	rooms, err := countBy(db, &models.Room{}, "store_id", ids, "is_active = ?", true)
	if err != nil {
		return nil, err
	}
	staff, err := countBy(db, &models.Staff{}, "assigned_store_id", ids, "is_active = ?", true)
	if err != nil {
		return nil, err
	}
	active, err := countBy(db, &models.Booking{}, "store_id", ids, "status IN ?", models.BlockingStatuses)
	if err != nil {
		return nil, err
	}
	out := make([]StoreWithCounts, 0, len(stores))
	for _, st := range stores {
		out = append(out, StoreWithCounts{
			Store:              st,
			RoomCount:          rooms[st.ID],
			StaffCount:         staff[st.ID],
			ActiveBookingCount: active[st.ID],
		})
	}
	return out, nil
}

// ListAdmin returns every store, active or not, with usage counts.
func (s *StoreService) ListAdmin(ctx context.Context) ([]StoreWithCounts, error) {
	db := s.DB.WithContext(ctx)
	var stores []models.Store
	if err := db.Order("id ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve stores: %w", err)
	}
	return s.withCounts(db, stores)
}

// ListForPrincipal returns the active stores the admin/staff user can manage.
func (s *StoreService) ListForPrincipal(ctx context.Context, p *auth.Principal) ([]StoreWithCounts, error) {
	db := s.DB.WithContext(ctx)
	q := db.Where("is_active = ?", true)
	if ids := p.AccessibleStoreIDs(); ids != nil {
		if len(ids) == 0 {
			return []StoreWithCounts{}, nil
		}
		q = q.Where("id IN ?", ids)
	}
	var stores []models.Store
	if err := q.Order("id ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve stores: %w", err)
	}
	return s.withCounts(db, stores)
}

// ListPublic returns active stores with their rating.
func (s *StoreService) ListPublic(ctx context.Context) ([]PublicStore, error) {
	var stores []models.Store
	if err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve stores: %w", err)
	}
	out := make([]PublicStore, 0, len(stores))
	for _, st := range stores {
		ps := PublicStore{ID: st.ID, Name: st.Name, Address: st.Address}
		if s.Ratings != nil {
			r, err := s.Ratings.StoreRating(ctx, st.ID)
			if err != nil {
				return nil, err
			}
			ps.AvgRating = r.AvgRating
			ps.ReviewCount = r.ReviewCount
		}
		out = append(out, ps)
	}
	return out, nil
}

func (s *StoreService) Get(ctx context.Context, id uint) (*models.Store, error) {
	var st models.Store
	if err := s.DB.WithContext(ctx).First(&st, id).Error; err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}
	return &st, nil
}

func storeNameTaken(db *gorm.DB, name string, excludeID uint) (bool, error) {
	var n int64
	q := db.Model(&models.Store{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *StoreService) Create(ctx context.Context, in StoreInput) (*models.Store, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, Validation("门店名称不能为空")
	}
	name := strings.TrimSpace(*in.Name)
	db := s.DB.WithContext(ctx)

	taken, err := storeNameTaken(db, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateName.WithMessage("门店名称已存在")
	}

	st := models.Store{Name: name, Address: trimmedOrNil(in.Address)}
	if err := db.Create(&st).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateName.WithMessage("门店名称已存在")
		}
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if in.IsActive != nil && !*in.IsActive {
		if err := db.Model(&st).Update("is_active", false).Error; err != nil {
			return nil, err
		}
		st.IsActive = false
	}
	return &st, nil
}

func (s *StoreService) Update(ctx context.Context, id uint, in StoreInput) (*models.Store, error) {
	db := s.DB.WithContext(ctx)
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, Validation("门店名称不能为空")
		}
		if name != st.Name {
			taken, err := storeNameTaken(db, name, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrDuplicateName.WithMessage("门店名称已存在")
			}
		}
		updates["name"] = name
	}
	if in.Address != nil {
		updates["address"] = trimmedOrNil(in.Address)
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := db.Model(&models.Store{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, ErrDuplicateName.WithMessage("门店名称已存在")
			}
			return nil, fmt.Errorf("failed to update store: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete hard-deletes a store that owns no rooms, no active staff and no
// bookings of any status.
func (s *StoreService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st models.Store
		if err := tx.First(&st, id).Error; err != nil {
			return notFound(err, ErrStoreNotFound)
		}
		var rooms, staff, bookings int64
		if err := tx.Model(&models.Room{}).Where("store_id = ?", id).Count(&rooms).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Staff{}).Where("assigned_store_id = ? AND is_active = ?", id, true).Count(&staff).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).Where("store_id = ?", id).Count(&bookings).Error; err != nil {
			return err
		}
		if rooms > 0 || staff > 0 || bookings > 0 {
			return ErrStoreInUse.WithMessage("该门店仍有 %d 个房间、%d 名员工和 %d 个订单，无法删除", rooms, staff, bookings)
		}
		// inactive staff keep no dangling store reference
		if err := tx.Model(&models.Staff{}).Where("assigned_store_id = ?", id).Update("assigned_store_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&st).Error
	})
}

// StoreSummary is the front-desk dashboard of one store.
type StoreSummary struct {
	Store              models.Store                `json:"store"`
	TotalRooms         int64                       `json:"totalRooms"`
	RoomsByStatus      map[models.RoomStatus]int64 `json:"roomsByStatus"`
	ActiveBookingCount int64                       `json:"activeBookingCount"`
}

// ResolveStaffStore picks the store a front-desk request operates on: a
// staff member's own store, or the explicitly requested one for admins.
func ResolveStaffStore(p *auth.Principal, requested *uint) (uint, error) {
	switch {
	case p.IsStaff():
		if p.StoreID == nil {
			return 0, ErrStoreForbidden.WithMessage("当前账号未分配门店")
		}
		if requested != nil && *requested != *p.StoreID {
			return 0, ErrStoreForbidden
		}
		return *p.StoreID, nil
	case p.IsAdmin():
		if requested == nil {
			return 0, Validation("请指定门店")
		}
		return *requested, nil
	}
	return 0, ErrForbidden
}

func (s *StoreService) Summary(ctx context.Context, storeID uint) (*StoreSummary, error) {
	db := s.DB.WithContext(ctx)
	st, err := s.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status models.RoomStatus
		N      int64
	}
	if err := db.Model(&models.Room{}).
		Select("status, COUNT(*) AS n").
		Where("store_id = ? AND is_active = ?", storeID, true).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	sum := &StoreSummary{
		Store: *st,
		RoomsByStatus: map[models.RoomStatus]int64{
			models.RoomAvailable:    0,
			models.RoomOccupied:     0,
			models.RoomCleaning:     0,
			models.RoomOutOfService: 0,
		},
	}
	for _, r := range rows {
		sum.RoomsByStatus[r.Status] = r.N
		sum.TotalRooms += r.N
	}
	if err := db.Model(&models.Booking{}).
		Where("store_id = ? AND status IN ?", storeID, models.BlockingStatuses).
		Count(&sum.ActiveBookingCount).Error; err != nil {
		return nil, err
	}
	return sum, nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
