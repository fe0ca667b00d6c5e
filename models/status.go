package models

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingNoShow     BookingStatus = "NO_SHOW"
)

// BlockingStatuses hold their assigned rooms for the booked date range.
var BlockingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCheckedIn}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCheckedIn, BookingCheckedOut,
		BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

func (s BookingStatus) Blocking() bool {
	return s == BookingPending || s == BookingConfirmed || s == BookingCheckedIn
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled || s == BookingNoShow
}

// RoomStatus is the operational state of a physical room.
type RoomStatus string

const (
	RoomAvailable    RoomStatus = "AVAILABLE"
	RoomOccupied     RoomStatus = "OCCUPIED"
	RoomCleaning     RoomStatus = "CLEANING"
	RoomOutOfService RoomStatus = "OUT_OF_SERVICE"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomCleaning, RoomOutOfService:
		return true
	}
	return false
}

// Role identifies which principal table a session belongs to.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleCustomer Role = "CUSTOMER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleCustomer
}
