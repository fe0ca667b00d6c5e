package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hotel-booking/auth"
	"hotel-booking/models"
)

type RoomService struct {
	DB *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{DB: db}
}

type RoomInput struct {
	RoomNo     *string
	Floor      *int
	RoomTypeID *uint
	BasePrice  *decimal.Decimal
	Capacity   *int
	Status     *models.RoomStatus
	IsActive   *bool
	// ClearBasePrice / ClearCapacity drop the override back to the room type.
	ClearBasePrice bool
	ClearCapacity  bool
}

func (in RoomInput) validate() error {
	if in.RoomNo != nil && strings.TrimSpace(*in.RoomNo) == "" {
		return Validation("房间号不能为空")
	}
	if in.Floor != nil && *in.Floor < 0 {
		return Validation("楼层不能为负数")
	}
	if in.BasePrice != nil && in.BasePrice.IsNegative() {
		return Validation("价格不能为负数")
	}
	if in.Capacity != nil && *in.Capacity < 1 {
		return Validation("可住人数至少为1")
	}
	if in.Status != nil && !in.Status.Valid() {
		return ErrInvalidRoomStatus
	}
	return nil
}

type RoomWithBookings struct {
	models.Room
	ActiveBookingCount int64 `json:"activeBookingCount"`
}

func activeBookingCounts(db *gorm.DB, roomIDs []uint) (map[uint]int64, error) {
	out := map[uint]int64{}
	if len(roomIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		RoomID uint
		N      int64
	}
	if err := db.Table("booking_rooms").
		Select("booking_rooms.room_id AS room_id, COUNT(*) AS n").
		Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Where("booking_rooms.room_id IN ?", roomIDs).
		Where("bookings.status IN ?", models.BlockingStatuses).
		Group("booking_rooms.room_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.RoomID] = r.N
	}
	return out, nil
}

// ListByStore returns the active rooms of a store ordered by floor, room no.
func (s *RoomService) ListByStore(ctx context.Context, storeID uint) ([]RoomWithBookings, error) {
	db := s.DB.WithContext(ctx)
	var store models.Store
	if err := db.First(&store, storeID).Error; err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}
	var rooms []models.Room
	if err := db.Where("store_id = ? AND is_active = ?", storeID, true).
		Preload("RoomType").
		Order("floor ASC, room_no ASC").
		Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve rooms: %w", err)
	}
	ids := make([]uint, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	counts, err := activeBookingCounts(db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RoomWithBookings, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomWithBookings{Room: r, ActiveBookingCount: counts[r.ID]})
	}
	return out, nil
}

func (s *RoomService) Get(ctx context.Context, storeID, roomID uint) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND store_id = ?", roomID, storeID).
		Preload("RoomType").
		First(&room).Error; err != nil {
		return nil, notFound(err, ErrRoomNotFound)
	}
	return &room, nil
}

func roomNoTaken(db *gorm.DB, storeID uint, roomNo string, excludeID uint) (bool, error) {
	var n int64
	q := db.Model(&models.Room{}).Where("store_id = ? AND room_no = ?", storeID, roomNo)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RoomService) Create(ctx context.Context, storeID uint, in RoomInput) (*models.Room, error) {
	if in.RoomNo == nil || in.Floor == nil || in.RoomTypeID == nil {
		return nil, Validation("房间号、楼层和房型为必填项")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	roomNo := strings.TrimSpace(*in.RoomNo)
	db := s.DB.WithContext(ctx)

	var store models.Store
	if err := db.First(&store, storeID).Error; err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}
	var rt models.RoomType
	if err := db.First(&rt, *in.RoomTypeID).Error; err != nil {
		return nil, notFound(err, ErrRoomTypeNotFound)
	}
	taken, err := roomNoTaken(db, storeID, roomNo, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateRoomNo
	}

	room := models.Room{
		StoreID:    storeID,
		RoomNo:     roomNo,
		Floor:      *in.Floor,
		RoomTypeID: rt.ID,
		Capacity:   in.Capacity,
		Status:     models.RoomAvailable,
	}
	if in.BasePrice != nil {
		room.BasePrice = decimal.NewNullDecimal(*in.BasePrice)
	}
	if in.Status != nil {
		room.Status = *in.Status
	}
	if err := db.Create(&room).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateRoomNo
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	if in.IsActive != nil && !*in.IsActive {
		if err := db.Model(&room).Update("is_active", false).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, storeID, room.ID)
}

func (s *RoomService) Update(ctx context.Context, storeID, roomID uint, in RoomInput) (*models.Room, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	room, err := s.Get(ctx, storeID, roomID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.RoomNo != nil {
		roomNo := strings.TrimSpace(*in.RoomNo)
		if roomNo != room.RoomNo {
			taken, err := roomNoTaken(db, storeID, roomNo, roomID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrDuplicateRoomNo
			}
		}
		updates["room_no"] = roomNo
	}
	if in.Floor != nil {
		updates["floor"] = *in.Floor
	}
	if in.RoomTypeID != nil {
		var rt models.RoomType
		if err := db.First(&rt, *in.RoomTypeID).Error; err != nil {
			return nil, notFound(err, ErrRoomTypeNotFound)
		}
		updates["room_type_id"] = rt.ID
	}
	switch {
	case in.ClearBasePrice:
		updates["base_price"] = decimal.NullDecimal{}
	case in.BasePrice != nil:
		updates["base_price"] = decimal.NewNullDecimal(*in.BasePrice)
	}
	switch {
	case in.ClearCapacity:
		updates["capacity"] = nil
	case in.Capacity != nil:
		updates["capacity"] = *in.Capacity
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := db.Model(&models.Room{}).Where("id = ?", roomID).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, ErrDuplicateRoomNo
			}
			return nil, fmt.Errorf("failed to update room: %w", err)
		}
	}
	return s.Get(ctx, storeID, roomID)
}

// Delete soft-deletes a room. Rooms still held by a blocking booking stay.
func (s *RoomService) Delete(ctx context.Context, storeID, roomID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Where("id = ? AND store_id = ?", roomID, storeID).First(&room).Error; err != nil {
			return notFound(err, ErrRoomNotFound)
		}
		counts, err := activeBookingCounts(tx, []uint{room.ID})
		if err != nil {
			return err
		}
		if counts[room.ID] > 0 {
			return ErrRoomInUse
		}
		return tx.Model(&room).Update("is_active", false).Error
	})
}

// SuggestRoomNo proposes the smallest free numeric room number on a floor,
// starting at floor*100+1.
func (s *RoomService) SuggestRoomNo(ctx context.Context, storeID uint, floor int) (string, error) {
	if floor < 0 {
		return "", Validation("楼层不能为负数")
	}
	var taken []string
	if err := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("store_id = ? AND floor = ?", storeID, floor).
		Pluck("room_no", &taken).Error; err != nil {
		return "", err
	}
	used := map[int]struct{}{}
	for _, no := range taken {
		if n, err := strconv.Atoi(strings.TrimSpace(no)); err == nil {
			used[n] = struct{}{}
		}
	}
	n := floor*100 + 1
	for {
		if _, ok := used[n]; !ok {
			return strconv.Itoa(n), nil
		}
		n++
	}
}

// RoomWithCurrentBooking is a front-desk row: a room and whichever
// blocking booking currently holds it.
type RoomWithCurrentBooking struct {
	models.Room
	CurrentBooking *models.Booking `json:"currentBooking"`
}

// StaffRooms lists a store's active rooms with their current booking.
func (s *RoomService) StaffRooms(ctx context.Context, storeID uint) ([]RoomWithCurrentBooking, error) {
	db := s.DB.WithContext(ctx)
	var rooms []models.Room
	if err := db.Where("store_id = ? AND is_active = ?", storeID, true).
		Preload("RoomType").
		Order("floor ASC, room_no ASC").
		Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve rooms: %w", err)
	}
	if len(rooms) == 0 {
		return []RoomWithCurrentBooking{}, nil
	}
	ids := make([]uint, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}

	var links []models.BookingRoom
	if err := db.Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Where("booking_rooms.room_id IN ?", ids).
		Where("bookings.status IN ?", models.BlockingStatuses).
		Find(&links).Error; err != nil {
		return nil, err
	}
	bookingIDs := make([]uint, 0, len(links))
	for _, l := range links {
		bookingIDs = append(bookingIDs, l.BookingID)
	}
	bookings := map[uint]models.Booking{}
	if len(bookingIDs) > 0 {
		var list []models.Booking
		if err := db.Where("id IN ?", bookingIDs).Preload("Customer").Find(&list).Error; err != nil {
			return nil, err
		}
		for _, b := range list {
			bookings[b.ID] = b
		}
	}

	// the earliest check-in wins when a room has several future holds
	current := map[uint]*models.Booking{}
	sort.Slice(links, func(i, j int) bool {
		return bookings[links[i].BookingID].CheckIn.Before(bookings[links[j].BookingID].CheckIn)
	})
	for _, l := range links {
		if _, ok := current[l.RoomID]; ok {
			continue
		}
		if b, ok := bookings[l.BookingID]; ok {
			b := b
			current[l.RoomID] = &b
		}
	}

	out := make([]RoomWithCurrentBooking, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomWithCurrentBooking{Room: r, CurrentBooking: current[r.ID]})
	}
	return out, nil
}

// SetStatus is the manual front-desk override, e.g. cleaning done.
func (s *RoomService) SetStatus(ctx context.Context, actor *auth.Principal, roomID uint, status models.RoomStatus) (*models.Room, error) {
	if !status.Valid() {
		return nil, ErrInvalidRoomStatus
	}
	db := s.DB.WithContext(ctx)
	var room models.Room
	if err := db.Where("id = ? AND is_active = ?", roomID, true).First(&room).Error; err != nil {
		return nil, notFound(err, ErrRoomNotFound)
	}
	if !actor.CanAccessStore(room.StoreID) {
		return nil, ErrStoreForbidden
	}
	if err := db.Model(&room).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update room status: %w", err)
	}
	return s.Get(ctx, room.StoreID, room.ID)
}
