package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-booking/auth"
	"hotel-booking/events"
	"hotel-booking/models"
)

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newBookingService(db *gorm.DB) (*BookingService, *events.MemoryPublisher) {
	pub := &events.MemoryPublisher{}
	svc := NewBookingService(db, pub, nil)
	svc.Now = func() time.Time { return fixedNow }
	return svc, pub
}

func seedStore(t *testing.T, db *gorm.DB, name string) models.Store {
	t.Helper()
	st := models.Store{Name: name}
	require.NoError(t, db.Create(&st).Error)
	return st
}

func seedRoomType(t *testing.T, db *gorm.DB, name, price string, amenities ...string) models.RoomType {
	t.Helper()
	rt := models.RoomType{
		Name:      name,
		BasePrice: decimal.RequireFromString(price),
		Capacity:  2,
		Amenities: amenities,
	}
	require.NoError(t, db.Create(&rt).Error)
	return rt
}

func seedRoom(t *testing.T, db *gorm.DB, storeID, typeID uint, roomNo string, floor int) models.Room {
	t.Helper()
	r := models.Room{
		StoreID:    storeID,
		RoomTypeID: typeID,
		RoomNo:     roomNo,
		Floor:      floor,
		Status:     models.RoomAvailable,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) models.Customer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	c := models.Customer{Email: email, PasswordHash: string(hash)}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedStaff(t *testing.T, db *gorm.DB, email string, storeID *uint) models.Staff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	st := models.Staff{Email: email, PasswordHash: string(hash), AssignedStoreID: storeID}
	require.NoError(t, db.Create(&st).Error)
	return st
}

func roomStatus(t *testing.T, db *gorm.DB, roomID uint) models.RoomStatus {
	t.Helper()
	var r models.Room
	require.NoError(t, db.First(&r, roomID).Error)
	return r.Status
}

func bookingStatus(t *testing.T, db *gorm.DB, bookingID uint) models.BookingStatus {
	t.Helper()
	var b models.Booking
	require.NoError(t, db.First(&b, bookingID).Error)
	return b.Status
}

func testAdmin() *auth.Principal {
	return &auth.Principal{ID: 1, Role: models.RoleAdmin, Email: "admin@hotel.local"}
}

func testStaff(id, storeID uint) *auth.Principal {
	return &auth.Principal{ID: id, Role: models.RoleStaff, StoreID: &storeID}
}

func testCustomer(c models.Customer) *auth.Principal {
	return &auth.Principal{ID: c.ID, Role: models.RoleCustomer, Email: c.Email}
}

// hotelFixture is one store with a 200.00 standard type and three rooms.
type hotelFixture struct {
	Store    models.Store
	Standard models.RoomType
	Rooms    []models.Room
	Customer models.Customer
}

func newHotelFixture(t *testing.T, db *gorm.DB) hotelFixture {
	t.Helper()
	f := hotelFixture{
		Store:    seedStore(t, db, "南山店"),
		Standard: seedRoomType(t, db, "标准间", "200.00", "wifi"),
		Customer: seedCustomer(t, db, "guest@example.com"),
	}
	for i, no := range []string{"101", "102", "201"} {
		floor := 1
		if i == 2 {
			floor = 2
		}
		f.Rooms = append(f.Rooms, seedRoom(t, db, f.Store.ID, f.Standard.ID, no, floor))
	}
	return f
}
