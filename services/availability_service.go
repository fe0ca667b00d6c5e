package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"hotel-booking/cache"
	"hotel-booking/models"
)

// RatingProvider returns the cached aggregate rating of a store.
type RatingProvider interface {
	StoreRating(ctx context.Context, storeID uint) (cache.Rating, error)
}

// AvailabilityService answers which rooms and room types are free for a stay.
type AvailabilityService struct {
	DB      *gorm.DB
	Ratings RatingProvider
}

func NewAvailabilityService(db *gorm.DB, ratings RatingProvider) *AvailabilityService {
	return &AvailabilityService{DB: db, Ratings: ratings}
}

// AvailabilityQuery selects one store, a half-open date range and optional filters.
type AvailabilityQuery struct {
	StoreID    uint
	CheckIn    time.Time
	CheckOut   time.Time
	RoomTypeID *uint
	Amenities  []string
}

// RoomTypeAvailability is a room type with its active and free room counts.
type RoomTypeAvailability struct {
	models.RoomType
	TotalRooms     int `json:"totalRooms"`
	AvailableCount int `json:"availableCount"`
}

func validateRange(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return ErrInvalidDateRange
	}
	return nil
}

// overlappingRoomIDs returns the rooms of a store that hold a blocking
// booking whose [checkIn, checkOut) overlaps the requested half-open range.
func overlappingRoomIDs(db *gorm.DB, storeID uint, checkIn, checkOut time.Time, excludeBookingID uint) ([]uint, error) {
	q := db.Table("booking_rooms").
		Distinct("booking_rooms.room_id").
		Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Joins("JOIN rooms ON rooms.id = booking_rooms.room_id").
		Where("rooms.store_id = ?", storeID).
		Where("bookings.status IN ?", models.BlockingStatuses).
		Where("bookings.check_in < ? AND bookings.check_out > ?", checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("bookings.id <> ?", excludeBookingID)
	}
	var ids []uint
	if err := q.Pluck("booking_rooms.room_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// roomIsFree checks a single room against the overlap rule.
func roomIsFree(db *gorm.DB, roomID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error) {
	q := db.Table("booking_rooms").
		Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Where("booking_rooms.room_id = ?", roomID).
		Where("bookings.status IN ?", models.BlockingStatuses).
		Where("bookings.check_in < ? AND bookings.check_out > ?", checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("bookings.id <> ?", excludeBookingID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

// bookableRooms lists the active, in-service rooms of a store.
func bookableRooms(db *gorm.DB, storeID uint, roomTypeID *uint) ([]models.Room, error) {
	q := db.Where("store_id = ? AND is_active = ? AND status <> ?", storeID, true, models.RoomOutOfService)
	if roomTypeID != nil {
		q = q.Where("room_type_id = ?", *roomTypeID)
	}
	var rooms []models.Room
	if err := q.Order("floor ASC, room_no ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// roomTypeAvailability counts free rooms per active room type of a store.
// Amenity filtering happens afterwards and only hides room types.
func roomTypeAvailability(db *gorm.DB, q AvailabilityQuery) ([]RoomTypeAvailability, error) {
	if err := validateRange(q.CheckIn, q.CheckOut); err != nil {
		return nil, err
	}
	rooms, err := bookableRooms(db, q.StoreID, q.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return []RoomTypeAvailability{}, nil
	}
	blockedIDs, err := overlappingRoomIDs(db, q.StoreID, q.CheckIn, q.CheckOut, 0)
	if err != nil {
		return nil, err
	}
	blocked := idSet(blockedIDs)

	total := map[uint]int{}
	free := map[uint]int{}
	typeIDs := make([]uint, 0)
	for _, r := range rooms {
		if _, seen := total[r.RoomTypeID]; !seen {
			typeIDs = append(typeIDs, r.RoomTypeID)
		}
		total[r.RoomTypeID]++
		if _, isBlocked := blocked[r.ID]; !isBlocked {
			free[r.RoomTypeID]++
		}
	}

	var types []models.RoomType
	if err := db.Where("id IN ? AND is_active = ?", typeIDs, true).Find(&types).Error; err != nil {
		return nil, err
	}

	out := make([]RoomTypeAvailability, 0, len(types))
	for _, rt := range types {
		if !rt.HasAmenities(q.Amenities) {
			continue
		}
		out = append(out, RoomTypeAvailability{
			RoomType:       rt,
			TotalRooms:     total[rt.ID],
			AvailableCount: free[rt.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BasePrice.Equal(out[j].BasePrice) {
			return out[i].BasePrice.LessThan(out[j].BasePrice)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// RoomTypeAvailability returns, per room type of the store, how many rooms
// are free for the whole requested range.
func (s *AvailabilityService) RoomTypeAvailability(ctx context.Context, q AvailabilityQuery) ([]RoomTypeAvailability, error) {
	var store models.Store
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_active = ?", q.StoreID, true).First(&store).Error; err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}
	return roomTypeAvailability(s.DB.WithContext(ctx), q)
}

// FreeRooms lists rooms of the store that are free for the range.
// onlyAvailable additionally requires operational status AVAILABLE.
func (s *AvailabilityService) FreeRooms(ctx context.Context, storeID uint, checkIn, checkOut time.Time, roomTypeID *uint, excludeBookingID uint, onlyAvailable bool) ([]models.Room, error) {
	return freeRooms(s.DB.WithContext(ctx), storeID, checkIn, checkOut, roomTypeID, excludeBookingID, onlyAvailable)
}

func freeRooms(db *gorm.DB, storeID uint, checkIn, checkOut time.Time, roomTypeID *uint, excludeBookingID uint, onlyAvailable bool) ([]models.Room, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	rooms, err := bookableRooms(db.Preload("RoomType"), storeID, roomTypeID)
	if err != nil {
		return nil, err
	}
	blockedIDs, err := overlappingRoomIDs(db, storeID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return nil, err
	}
	blocked := idSet(blockedIDs)
	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if _, isBlocked := blocked[r.ID]; isBlocked {
			continue
		}
		if onlyAvailable && r.Status != models.RoomAvailable {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// StoreSearchQuery filters stores by stay dates, room type name and amenities.
type StoreSearchQuery struct {
	CheckIn      time.Time
	CheckOut     time.Time
	RoomTypeName string
	Amenities    []string
}

// StoreSearchResult is a matching store with its rating and available room types.
type StoreSearchResult struct {
	ID          uint                   `json:"id"`
	Name        string                 `json:"name"`
	Address     *string                `json:"address"`
	AvgRating   *float64               `json:"avgRating"`
	ReviewCount int64                  `json:"reviewCount"`
	RoomTypes   []RoomTypeAvailability `json:"roomTypes"`
}

// SearchStores returns the active stores that have at least one room type
// matching the filters with free rooms for the range.
func (s *AvailabilityService) SearchStores(ctx context.Context, q StoreSearchQuery) ([]StoreSearchResult, error) {
	if err := validateRange(q.CheckIn, q.CheckOut); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var stores []models.Store
	if err := db.Where("is_active = ?", true).Order("id ASC").Find(&stores).Error; err != nil {
		return nil, err
	}

	out := make([]StoreSearchResult, 0, len(stores))
	for _, st := range stores {
		avail, err := roomTypeAvailability(db, AvailabilityQuery{
			StoreID:   st.ID,
			CheckIn:   q.CheckIn,
			CheckOut:  q.CheckOut,
			Amenities: q.Amenities,
		})
		if err != nil {
			return nil, err
		}
		matching := make([]RoomTypeAvailability, 0, len(avail))
		for _, a := range avail {
			if a.AvailableCount == 0 {
				continue
			}
			if q.RoomTypeName != "" && a.Name != q.RoomTypeName {
				continue
			}
			matching = append(matching, a)
		}
		if len(matching) == 0 {
			continue
		}

		res := StoreSearchResult{ID: st.ID, Name: st.Name, Address: st.Address, RoomTypes: matching}
		if s.Ratings != nil {
			rating, err := s.Ratings.StoreRating(ctx, st.ID)
			if err != nil {
				return nil, err
			}
			res.AvgRating = rating.AvgRating
			res.ReviewCount = rating.ReviewCount
		}
		out = append(out, res)
	}
	return out, nil
}
