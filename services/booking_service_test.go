package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hotel-booking/events"
	"hotel-booking/models"
)

func TestCreateCustomerBooking_PendingWithPrice(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, pub := newBookingService(db)

	b, err := svc.CreateCustomerBooking(context.Background(), f.Customer.ID, CustomerBookingInput{
		StoreID:    f.Store.ID,
		RoomTypeID: f.Standard.ID,
		CheckIn:    "2025-01-10",
		CheckOut:   "2025-01-13",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.RoleCustomer, b.CreatedByRole)
	assert.True(t, b.TotalPrice.Equal(decimal.RequireFromString("600.00")), b.TotalPrice.String())
	assert.Equal(t, 3, b.Nights())
	assert.Equal(t, []string{events.BookingCreated}, pub.Types())

	var links int64
	require.NoError(t, db.Model(&models.BookingRoom{}).Where("booking_id = ?", b.ID).Count(&links).Error)
	assert.Zero(t, links)

	// a later price change leaves the stored total alone
	require.NoError(t, db.Model(&f.Standard).Update("base_price", decimal.RequireFromString("999.00")).Error)
	got, err := svc.GetBooking(context.Background(), testAdmin(), b.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("600.00")), got.TotalPrice.String())
}

func TestCreateCustomerBooking_Validation(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()

	cases := []struct {
		name     string
		in       CustomerBookingInput
		expected error
	}{
		{"zero nights", CustomerBookingInput{f.Store.ID, f.Standard.ID, "2025-01-10", "2025-01-10"}, ErrInvalidDateRange},
		{"reversed", CustomerBookingInput{f.Store.ID, f.Standard.ID, "2025-01-12", "2025-01-10"}, ErrInvalidDateRange},
		{"past", CustomerBookingInput{f.Store.ID, f.Standard.ID, "2024-12-30", "2025-01-02"}, ErrCheckInInPast},
		{"unknown store", CustomerBookingInput{999, f.Standard.ID, "2025-01-10", "2025-01-11"}, ErrStoreNotFound},
		{"unknown type", CustomerBookingInput{f.Store.ID, 999, "2025-01-10", "2025-01-11"}, ErrRoomTypeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCustomerBooking(ctx, f.Customer.ID, tc.in)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestCreateCustomerBooking_NoAvailability(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()

	// hold every room for the 10th to the 12th
	_, err := svc.CreateStaffBooking(ctx, testAdmin(), StaffBookingInput{
		CustomerID: f.Customer.ID,
		StoreID:    f.Store.ID,
		RoomTypeID: f.Standard.ID,
		CheckIn:    "2025-01-10",
		CheckOut:   "2025-01-12",
		RoomIDs:    []uint{f.Rooms[0].ID, f.Rooms[1].ID, f.Rooms[2].ID},
	})
	require.NoError(t, err)

	_, err = svc.CreateCustomerBooking(ctx, f.Customer.ID, CustomerBookingInput{
		StoreID: f.Store.ID, RoomTypeID: f.Standard.ID, CheckIn: "2025-01-11", CheckOut: "2025-01-13",
	})
	assert.ErrorIs(t, err, ErrNoRoomsAvailable)

	// half-open: checking in on the day the others check out is fine
	_, err = svc.CreateCustomerBooking(ctx, f.Customer.ID, CustomerBookingInput{
		StoreID: f.Store.ID, RoomTypeID: f.Standard.ID, CheckIn: "2025-01-12", CheckOut: "2025-01-13",
	})
	assert.NoError(t, err)
}

func TestCreateStaffBooking_ConfirmedWithRooms(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, pub := newBookingService(db)

	// room 102 overrides the type price
	require.NoError(t, db.Model(&f.Rooms[1]).Update("base_price", decimal.RequireFromString("250.00")).Error)

	b, err := svc.CreateStaffBooking(context.Background(), testStaff(7, f.Store.ID), StaffBookingInput{
		CustomerID: f.Customer.ID,
		StoreID:    f.Store.ID,
		RoomTypeID: f.Standard.ID,
		CheckIn:    "2025-01-10",
		CheckOut:   "2025-01-12",
		RoomIDs:    []uint{f.Rooms[0].ID, f.Rooms[1].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, models.RoleStaff, b.CreatedByRole)
	require.NotNil(t, b.CreatedByStaffID)
	assert.Equal(t, uint(7), *b.CreatedByStaffID)
	require.NotNil(t, b.ConfirmedByStaffID)
	require.Len(t, b.BookingRooms, 2)

	// (200 + 250) x 2 nights
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(900)), b.TotalPrice.String())
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, f.Rooms[0].ID))
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, f.Rooms[1].ID))
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, f.Rooms[2].ID))
	assert.Equal(t, []string{events.BookingCreated, events.BookingRoomsAssigned}, pub.Types())

	require.NoError(t, db.Model(&f.Standard).Update("base_price", decimal.RequireFromString("999.00")).Error)
	require.NoError(t, db.Model(&f.Rooms[1]).Update("base_price", decimal.RequireFromString("888.00")).Error)
	got, err := svc.GetBooking(context.Background(), testAdmin(), b.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(900)), got.TotalPrice.String())
	rates := map[uint]decimal.Decimal{}
	for _, br := range got.BookingRooms {
		rates[br.RoomID] = br.NightlyRate
	}
	assert.True(t, rates[f.Rooms[0].ID].Equal(decimal.RequireFromString("200.00")), rates[f.Rooms[0].ID].String())
	assert.True(t, rates[f.Rooms[1].ID].Equal(decimal.RequireFromString("250.00")), rates[f.Rooms[1].ID].String())
}

func TestCreateStaffBooking_OtherStoreForbidden(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	other := seedStore(t, db, "福田店")
	svc, _ := newBookingService(db)

	_, err := svc.CreateStaffBooking(context.Background(), testStaff(7, other.ID), StaffBookingInput{
		CustomerID: f.Customer.ID, StoreID: f.Store.ID, RoomTypeID: f.Standard.ID,
		CheckIn: "2025-01-10", CheckOut: "2025-01-12",
	})
	assert.ErrorIs(t, err, ErrStoreForbidden)
}

func TestCreateStaffBooking_InactiveTargets(t *testing.T) {
	cases := []struct {
		name     string
		disable  func(db *gorm.DB, f hotelFixture) error
		expected error
	}{
		{"customer", func(db *gorm.DB, f hotelFixture) error {
			return db.Model(&f.Customer).Update("is_active", false).Error
		}, ErrCustomerNotFound},
		{"store", func(db *gorm.DB, f hotelFixture) error {
			return db.Model(&f.Store).Update("is_active", false).Error
		}, ErrStoreNotFound},
		{"room type", func(db *gorm.DB, f hotelFixture) error {
			return db.Model(&f.Standard).Update("is_active", false).Error
		}, ErrRoomTypeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			f := newHotelFixture(t, db)
			svc, _ := newBookingService(db)
			require.NoError(t, tc.disable(db, f))

			_, err := svc.CreateStaffBooking(context.Background(), testAdmin(), StaffBookingInput{
				CustomerID: f.Customer.ID, StoreID: f.Store.ID, RoomTypeID: f.Standard.ID,
				CheckIn: "2025-01-10", CheckOut: "2025-01-12",
			})
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func createPending(t *testing.T, svc *BookingService, f hotelFixture, checkIn, checkOut string) *models.Booking {
	t.Helper()
	b, err := svc.CreateCustomerBooking(context.Background(), f.Customer.ID, CustomerBookingInput{
		StoreID: f.Store.ID, RoomTypeID: f.Standard.ID, CheckIn: checkIn, CheckOut: checkOut,
	})
	require.NoError(t, err)
	return b
}

func TestAssignRooms_ConfirmsPending(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")

	var fired []BookingEvent
	svc.OnTransition = func(ev BookingEvent) { fired = append(fired, ev) }

	got, err := svc.AssignRooms(context.Background(), testAdmin(), b.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedByAdminID)
	require.Len(t, got.BookingRooms, 1)
	assert.True(t, got.BookingRooms[0].NightlyRate.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, f.Rooms[0].ID))
	assert.Equal(t, []BookingEvent{EventConfirm}, fired)

	// total price is never recomputed by assignment
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(400)))
}

func TestAssignRooms_AllOrNothing(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, pub := newBookingService(db)
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")

	require.NoError(t, db.Model(&f.Rooms[1]).Update("status", models.RoomCleaning).Error)

	_, err := svc.AssignRooms(context.Background(), testAdmin(), b.ID, []uint{f.Rooms[0].ID, f.Rooms[1].ID})
	require.ErrorIs(t, err, ErrRoomUnavailable)

	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, f.Rooms[0].ID), "first room must be rolled back")
	assert.Equal(t, models.BookingPending, bookingStatus(t, db, b.ID))
	var links int64
	require.NoError(t, db.Model(&models.BookingRoom{}).Where("booking_id = ?", b.ID).Count(&links).Error)
	assert.Zero(t, links)
	assert.Equal(t, []string{events.BookingCreated}, pub.Types())
}

func TestAssignRooms_WrongStore(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	other := seedStore(t, db, "福田店")
	foreign := seedRoom(t, db, other.ID, f.Standard.ID, "101", 1)
	svc, _ := newBookingService(db)
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")

	_, err := svc.AssignRooms(context.Background(), testAdmin(), b.ID, []uint{foreign.ID})
	assert.ErrorIs(t, err, ErrRoomWrongStore)
}

func TestAssignRooms_NoDoubleBookingAcrossDates(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()

	first := createPending(t, svc, f, "2025-01-10", "2025-01-14")
	_, err := svc.AssignRooms(ctx, testAdmin(), first.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)

	// room is OCCUPIED now, and the overlapping range is refused either way
	second := createPending(t, svc, f, "2025-01-12", "2025-01-13")
	_, err = svc.AssignRooms(ctx, testAdmin(), second.ID, []uint{f.Rooms[0].ID})
	assert.ErrorIs(t, err, ErrRoomUnavailable)
}

func TestAssignRooms_Reassignment(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")

	_, err := svc.AssignRooms(ctx, testAdmin(), b.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)
	got, err := svc.AssignRooms(ctx, testAdmin(), b.ID, []uint{f.Rooms[1].ID})
	require.NoError(t, err)

	assert.Equal(t, []uint{f.Rooms[1].ID}, got.RoomIDs())
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, f.Rooms[0].ID))
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, f.Rooms[1].ID))
	assert.Equal(t, models.BookingConfirmed, got.Status)
}

func TestCheckIn_RequiresRooms(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()

	b, err := svc.CreateStaffBooking(ctx, testAdmin(), StaffBookingInput{
		CustomerID: f.Customer.ID, StoreID: f.Store.ID, RoomTypeID: f.Standard.ID,
		CheckIn: "2025-01-10", CheckOut: "2025-01-12",
	})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, testAdmin(), b.ID, EventCheckIn, TransitionOptions{})
	assert.ErrorIs(t, err, ErrNoRoomsAssigned)
	assert.Equal(t, models.BookingConfirmed, bookingStatus(t, db, b.ID))
}

func TestLifecycle_CheckoutLeavesRoomsCleaning(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, pub := newBookingService(db)
	ctx := context.Background()
	staff := testStaff(3, f.Store.ID)
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")

	got, err := svc.PerformAction(ctx, staff, b.ID, "assign", []uint{f.Rooms[0].ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCheckedIn, got.Status)
	assert.NotNil(t, got.CheckedInAt)
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, f.Rooms[0].ID))

	got, err = svc.PerformAction(ctx, staff, b.ID, "checkout", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCheckedOut, got.Status)
	assert.NotNil(t, got.CheckedOutAt)
	assert.Equal(t, models.RoomCleaning, roomStatus(t, db, f.Rooms[0].ID))

	got, err = svc.Apply(ctx, staff, b.ID, EventComplete, TransitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, got.Status)
	assert.Equal(t, models.RoomCleaning, roomStatus(t, db, f.Rooms[0].ID))

	assert.Equal(t, []string{
		events.BookingCreated,
		events.BookingRoomsAssigned,
		events.BookingStatusChanged,
		events.BookingStatusChanged,
		events.BookingStatusChanged,
	}, pub.Types())
}

func TestCancel_ReleasesRoomsOnce(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	_, err := svc.AssignRooms(ctx, testAdmin(), b.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)

	got, err := svc.Apply(ctx, testAdmin(), b.ID, EventCancel, TransitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, got.Status)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "前台取消", *got.CancelReason)
	assert.NotNil(t, got.CancelledAt)
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, f.Rooms[0].ID))

	// a new guest takes the room; a repeated cancel must not free it
	other := createPending(t, svc, f, "2025-01-10", "2025-01-11")
	_, err = svc.AssignRooms(ctx, testAdmin(), other.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, testAdmin(), b.ID, EventCancel, TransitionOptions{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, f.Rooms[0].ID))
}

func TestCancelByCustomer(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	guest := testCustomer(f.Customer)

	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	got, err := svc.CancelByCustomer(ctx, guest, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, got.Status)
	assert.Equal(t, "用户取消", *got.CancelReason)

	stranger := seedCustomer(t, db, "other@example.com")
	b2 := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	_, err = svc.CancelByCustomer(ctx, testCustomer(stranger), b2.ID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.PerformAction(ctx, testAdmin(), b2.ID, "assign", []uint{f.Rooms[0].ID}, nil)
	require.NoError(t, err)
	_, err = svc.CancelByCustomer(ctx, guest, b2.ID, nil)
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestNoShow_ReleasesRooms(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	_, err := svc.AssignRooms(ctx, testAdmin(), b.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)

	got, err := svc.PerformAction(ctx, testAdmin(), b.ID, "no_show", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingNoShow, got.Status)
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, f.Rooms[0].ID))
}

func TestUpdateBooking_StatusAndPrice(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")

	confirmed := models.BookingConfirmed
	price := decimal.RequireFromString("350.50")
	got, err := svc.UpdateBooking(ctx, testAdmin(), b.ID, UpdateBookingInput{Status: &confirmed, TotalPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	assert.True(t, got.TotalPrice.Equal(price))

	completed := models.BookingCompleted
	_, err = svc.UpdateBooking(ctx, testAdmin(), b.ID, UpdateBookingInput{Status: &completed})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateBooking_DateEditChecksAssignedRooms(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()

	a := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	_, err := svc.AssignRooms(ctx, testAdmin(), a.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)

	// a second stay of the same room after the first one ends
	b := createPending(t, svc, f, "2025-01-12", "2025-01-14")
	require.NoError(t, db.Model(&models.Room{}).Where("id = ?", f.Rooms[0].ID).Update("status", models.RoomAvailable).Error)
	_, err = svc.AssignRooms(ctx, testAdmin(), b.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)

	later := "2025-01-13"
	_, err = svc.UpdateBooking(ctx, testAdmin(), a.ID, UpdateBookingInput{CheckOut: &later})
	assert.ErrorIs(t, err, ErrRoomUnavailable)
}

func TestDeleteBooking(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, pub := newBookingService(db)
	ctx := context.Background()

	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	_, err := svc.AssignRooms(ctx, testAdmin(), b.ID, []uint{f.Rooms[0].ID})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteBooking(ctx, testAdmin(), b.ID), ErrBookingNotDeletable)
	assert.ErrorIs(t, svc.DeleteBooking(ctx, testStaff(2, f.Store.ID), b.ID), ErrForbidden)

	_, err = svc.Apply(ctx, testAdmin(), b.ID, EventCancel, TransitionOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBooking(ctx, testAdmin(), b.ID))

	var n int64
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", b.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.BookingRoom{}).Where("booking_id = ?", b.ID).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, events.BookingDeleted, pub.Types()[len(pub.Types())-1])
}

func TestListBookings_StaffForcedToOwnStore(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	other := seedStore(t, db, "福田店")
	seedRoom(t, db, other.ID, f.Standard.ID, "101", 1)
	svc, _ := newBookingService(db)
	ctx := context.Background()

	createPending(t, svc, f, "2025-01-10", "2025-01-12")
	createPending(t, svc, f, "2025-01-11", "2025-01-12")
	_, err := svc.CreateCustomerBooking(ctx, f.Customer.ID, CustomerBookingInput{
		StoreID: other.ID, RoomTypeID: f.Standard.ID, CheckIn: "2025-01-10", CheckOut: "2025-01-11",
	})
	require.NoError(t, err)

	page, err := svc.ListBookings(ctx, testStaff(5, other.ID), BookingFilter{StoreID: &f.Store.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, other.ID, page.Bookings[0].StoreID)

	page, err = svc.ListBookings(ctx, testAdmin(), BookingFilter{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Bookings, 1)

	pending := models.BookingPending
	page, err = svc.ListBookings(ctx, testAdmin(), BookingFilter{StoreID: &f.Store.ID, Status: &pending, CustomerName: "GUEST@"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
}

func TestGetBooking_Access(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")

	got, err := svc.GetBooking(ctx, testCustomer(f.Customer), b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RoomType)
	assert.Equal(t, f.Standard.Name, got.RoomType.Name)

	_, err = svc.GetBooking(ctx, testStaff(9, f.Store.ID+100), b.ID)
	assert.ErrorIs(t, err, ErrStoreForbidden)

	_, err = svc.GetBooking(ctx, testAdmin(), 4242)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestAvailableRoomsForBooking_GroupsByFloor(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	require.NoError(t, db.Model(&f.Rooms[1]).Update("status", models.RoomOutOfService).Error)

	res, err := svc.AvailableRoomsForBooking(ctx, testAdmin(), b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalAvailable)
	assert.Len(t, res.RoomsByFloor[1], 1)
	assert.Len(t, res.RoomsByFloor[2], 1)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	db := newTestDB(t)
	f := newHotelFixture(t, db)
	svc, pub := newBookingService(db)
	pub.Err = assert.AnError

	b := createPending(t, svc, f, "2025-01-10", "2025-01-12")
	assert.Equal(t, models.BookingPending, bookingStatus(t, db, b.ID))
}
