// services/booking_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-booking/auth"
	"hotel-booking/cache"
	"hotel-booking/events"
	"hotel-booking/models"
	"hotel-booking/utils"
)

const (
	defaultCustomerCancelReason = "用户取消"
	defaultStaffCancelReason    = "前台取消"
)

// BookingService owns the booking lifecycle: creation, room assignment,
// state transitions and deletion. Every multi-step write runs in one
// transaction; events are published only after commit.
type BookingService struct {
	DB     *gorm.DB
	Events events.Publisher
	Log    *zap.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
	// OnTransition is called once per committed lifecycle event.
	OnTransition func(ev BookingEvent)
	// Ratings is dropped for a store whose reviews change. Nil is allowed.
	Ratings *cache.RatingCache
}

func NewBookingService(db *gorm.DB, pub events.Publisher, log *zap.Logger) *BookingService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{DB: db, Events: pub, Log: log, Now: time.Now}
}

func (s *BookingService) today() time.Time {
	return utils.DateOf(s.Now().In(time.Local))
}

func (s *BookingService) publish(ctx context.Context, evs ...events.Event) {
	for _, ev := range evs {
		if ev.At.IsZero() {
			ev.At = s.Now().UTC()
		}
		if err := s.Events.Publish(ctx, ev); err != nil {
			s.Log.Warn("publish booking event failed",
				zap.String("type", ev.Type), zap.Uint("booking_id", ev.BookingID), zap.Error(err))
		}
	}
}

func (s *BookingService) observe(evs ...BookingEvent) {
	if s.OnTransition == nil {
		return
	}
	for _, ev := range evs {
		s.OnTransition(ev)
	}
}

func statusEvent(b *models.Booking, actor *auth.Principal) events.Event {
	ev := events.Event{
		Type:      events.BookingStatusChanged,
		BookingID: b.ID,
		StoreID:   b.StoreID,
		Status:    string(b.Status),
	}
	if actor != nil {
		ev.Actor = string(actor.Role)
	}
	return ev
}

// lockBooking loads a booking with its room links under a row lock.
func lockBooking(tx *gorm.DB, bookingID uint) (*models.Booking, error) {
	var b models.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("BookingRooms").
		First(&b, bookingID).Error; err != nil {
		return nil, notFound(err, ErrBookingNotFound)
	}
	return &b, nil
}

func checkBookingAccess(actor *auth.Principal, b *models.Booking) error {
	if actor == nil {
		return ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleCustomer:
		if b.CustomerID != actor.ID {
			return ErrForbidden.WithMessage("无权操作此订单")
		}
		return nil
	default:
		if !actor.CanAccessStore(b.StoreID) {
			return ErrStoreForbidden
		}
		return nil
	}
}

func parseRange(checkIn, checkOut string) (time.Time, time.Time, error) {
	ci, err := utils.ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, Validation("入住日期格式不正确")
	}
	co, err := utils.ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, Validation("离店日期格式不正确")
	}
	if err := validateRange(ci, co); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return ci, co, nil
}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

type CustomerBookingInput struct {
	StoreID    uint
	RoomTypeID uint
	CheckIn    string
	CheckOut   string
}

// CreateCustomerBooking creates a PENDING self-service booking with no room
// assigned. The price is basePrice x nights and never recomputed.
func (s *BookingService) CreateCustomerBooking(ctx context.Context, customerID uint, in CustomerBookingInput) (*models.Booking, error) {
	checkIn, checkOut, err := parseRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if checkIn.Before(s.today()) {
		return nil, ErrCheckInInPast
	}

	var booking models.Booking
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Where("id = ? AND is_active = ?", customerID, true).First(&customer).Error; err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
		var store models.Store
		if err := tx.Where("id = ? AND is_active = ?", in.StoreID, true).First(&store).Error; err != nil {
			return notFound(err, ErrStoreNotFound)
		}
		var roomType models.RoomType
		if err := tx.Where("id = ? AND is_active = ?", in.RoomTypeID, true).First(&roomType).Error; err != nil {
			return notFound(err, ErrRoomTypeNotFound)
		}

		avail, err := roomTypeAvailability(tx, AvailabilityQuery{
			StoreID:    store.ID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			RoomTypeID: &roomType.ID,
		})
		if err != nil {
			return err
		}
		if len(avail) == 0 || avail[0].AvailableCount == 0 {
			return ErrNoRoomsAvailable
		}

		nights := models.NightsBetween(checkIn, checkOut)
		booking = models.Booking{
			Status:        models.BookingPending,
			CustomerID:    customer.ID,
			StoreID:       store.ID,
			RoomTypeID:    roomType.ID,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			TotalPrice:    roomType.BasePrice.Mul(decimal.NewFromInt(int64(nights))),
			CreatedByRole: models.RoleCustomer,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.BookingCreated,
		BookingID: booking.ID,
		StoreID:   booking.StoreID,
		Status:    string(booking.Status),
		Actor:     string(models.RoleCustomer),
	})
	return &booking, nil
}

type StaffBookingInput struct {
	CustomerID uint
	StoreID    uint
	RoomTypeID uint
	CheckIn    string
	CheckOut   string
	TotalPrice *decimal.Decimal
	RoomIDs    []uint
}

// CreateStaffBooking creates a CONFIRMED booking on behalf of a customer,
// optionally assigning rooms in the same transaction.
func (s *BookingService) CreateStaffBooking(ctx context.Context, actor *auth.Principal, in StaffBookingInput) (*models.Booking, error) {
	if actor == nil || actor.IsCustomer() {
		return nil, ErrForbidden
	}
	if !actor.CanAccessStore(in.StoreID) {
		return nil, ErrStoreForbidden
	}
	checkIn, checkOut, err := parseRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
		return nil, Validation("总价不能为负数")
	}

	var bookingID uint
	assigned := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Where("id = ? AND is_active = ?", in.CustomerID, true).First(&customer).Error; err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
		var store models.Store
		if err := tx.Where("id = ? AND is_active = ?", in.StoreID, true).First(&store).Error; err != nil {
			return notFound(err, ErrStoreNotFound)
		}
		var roomType models.RoomType
		if err := tx.Where("id = ? AND is_active = ?", in.RoomTypeID, true).First(&roomType).Error; err != nil {
			return notFound(err, ErrRoomTypeNotFound)
		}

		booking := models.Booking{
			Status:        models.BookingConfirmed,
			CustomerID:    customer.ID,
			StoreID:       store.ID,
			RoomTypeID:    roomType.ID,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			TotalPrice:    decimal.Zero,
			CreatedByRole: actor.Role,
		}
		if actor.IsAdmin() {
			booking.CreatedByAdminID = &actor.ID
			booking.ConfirmedByAdminID = &actor.ID
		} else {
			booking.CreatedByStaffID = &actor.ID
			booking.ConfirmedByStaffID = &actor.ID
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		bookingID = booking.ID

		nights := decimal.NewFromInt(int64(booking.Nights()))
		total := roomType.BasePrice.Mul(nights)
		if len(in.RoomIDs) > 0 {
			links, err := assignRoomsTx(tx, &booking, in.RoomIDs)
			if err != nil {
				return err
			}
			assigned = true
			sum := decimal.Zero
			for _, l := range links {
				sum = sum.Add(l.NightlyRate)
			}
			total = sum.Mul(nights)
		}
		if in.TotalPrice != nil {
			total = *in.TotalPrice
		}
		return tx.Model(&booking).Update("total_price", total).Error
	})
	if err != nil {
		return nil, err
	}

	b, err := s.loadDetail(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	evs := []events.Event{{
		Type:      events.BookingCreated,
		BookingID: b.ID,
		StoreID:   b.StoreID,
		Status:    string(b.Status),
		Actor:     string(actor.Role),
	}}
	if assigned {
		evs = append(evs, roomsAssignedEvent(b, actor))
	}
	s.publish(ctx, evs...)
	return b, nil
}

// ---------------------------------------------------------------------------
// Room assignment
// ---------------------------------------------------------------------------

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// releaseRooms returns OCCUPIED rooms to AVAILABLE unless another blocking
// booking still holds them. Rooms in any other status are left alone, so
// running it twice is harmless.
func releaseRooms(tx *gorm.DB, bookingID uint, roomIDs []uint) error {
	if len(roomIDs) == 0 {
		return nil
	}
	heldElsewhere := tx.Table("booking_rooms").
		Select("booking_rooms.room_id").
		Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Where("bookings.id <> ? AND bookings.status IN ?", bookingID, models.BlockingStatuses)

	return tx.Model(&models.Room{}).
		Where("id IN ? AND status = ?", roomIDs, models.RoomOccupied).
		Where("id NOT IN (?)", heldElsewhere).
		Update("status", models.RoomAvailable).Error
}

func setRoomsStatus(tx *gorm.DB, roomIDs []uint, status models.RoomStatus) error {
	if len(roomIDs) == 0 {
		return nil
	}
	return tx.Model(&models.Room{}).Where("id IN ?", roomIDs).Update("status", status).Error
}

// assignRoomsTx replaces the booking's room links with roomIDs. Every room
// is re-validated under lock; the first failure aborts the whole
// transaction, so no partial assignment survives.
func assignRoomsTx(tx *gorm.DB, b *models.Booking, roomIDs []uint) ([]models.BookingRoom, error) {
	ids := dedupeIDs(roomIDs)
	if len(ids) == 0 {
		return nil, Validation("请选择要分配的房间")
	}

	var existing []models.BookingRoom
	if err := tx.Where("booking_id = ?", b.ID).Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		oldIDs := make([]uint, 0, len(existing))
		for _, br := range existing {
			oldIDs = append(oldIDs, br.RoomID)
		}
		if err := releaseRooms(tx, b.ID, oldIDs); err != nil {
			return nil, fmt.Errorf("release previous rooms: %w", err)
		}
		if err := tx.Where("booking_id = ?", b.ID).Delete(&models.BookingRoom{}).Error; err != nil {
			return nil, fmt.Errorf("delete previous room links: %w", err)
		}
	}

	links := make([]models.BookingRoom, 0, len(ids))
	for _, roomID := range ids {
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("RoomType").
			First(&room, roomID).Error; err != nil {
			return nil, notFound(err, ErrRoomNotFound)
		}
		if room.StoreID != b.StoreID {
			return nil, ErrRoomWrongStore.WithMessage("房间 %s 不属于该订单门店", room.RoomNo)
		}
		if !room.IsActive || room.Status != models.RoomAvailable {
			return nil, ErrRoomUnavailable.WithMessage("房间 %s 当前不可用", room.RoomNo)
		}
		free, err := roomIsFree(tx, room.ID, b.CheckIn, b.CheckOut, b.ID)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, ErrRoomUnavailable.WithMessage("房间 %s 在所选日期已被预订", room.RoomNo)
		}

		// guarded flip: a concurrent assignment that got there first leaves zero rows
		res := tx.Model(&models.Room{}).
			Where("id = ? AND status = ?", room.ID, models.RoomAvailable).
			Update("status", models.RoomOccupied)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected != 1 {
			return nil, ErrRoomUnavailable.WithMessage("房间 %s 当前不可用", room.RoomNo)
		}

		rate := decimal.Zero
		if room.RoomType != nil {
			rate = room.NightlyRate(*room.RoomType)
		} else if room.BasePrice.Valid {
			rate = room.BasePrice.Decimal
		}
		link := models.BookingRoom{BookingID: b.ID, RoomID: room.ID, NightlyRate: rate}
		if err := tx.Create(&link).Error; err != nil {
			return nil, fmt.Errorf("failed to create booking_room for room %d: %w", room.ID, err)
		}
		links = append(links, link)
	}
	b.BookingRooms = links
	return links, nil
}

func roomsAssignedEvent(b *models.Booking, actor *auth.Principal) events.Event {
	ev := statusEvent(b, actor)
	ev.Type = events.BookingRoomsAssigned
	ev.Data = map[string]interface{}{"roomIds": b.RoomIDs()}
	return ev
}

// AssignRooms binds rooms to a PENDING or CONFIRMED booking. A PENDING
// booking becomes CONFIRMED.
func (s *BookingService) AssignRooms(ctx context.Context, actor *auth.Principal, bookingID uint, roomIDs []uint) (*models.Booking, error) {
	return s.assign(ctx, actor, bookingID, roomIDs, false)
}

// AssignAndCheckIn assigns rooms and checks the guest in atomically.
func (s *BookingService) AssignAndCheckIn(ctx context.Context, actor *auth.Principal, bookingID uint, roomIDs []uint) (*models.Booking, error) {
	return s.assign(ctx, actor, bookingID, roomIDs, true)
}

func (s *BookingService) assign(ctx context.Context, actor *auth.Principal, bookingID uint, roomIDs []uint, checkIn bool) (*models.Booking, error) {
	if actor == nil || actor.IsCustomer() {
		return nil, ErrForbidden
	}
	var fired []BookingEvent
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fired = fired[:0]
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := checkBookingAccess(actor, b); err != nil {
			return err
		}
		if b.Status != models.BookingPending && b.Status != models.BookingConfirmed {
			return ErrInvalidTransition.WithMessage("只能为待确认或已确认的订单分配房间")
		}
		if _, err := assignRoomsTx(tx, b, roomIDs); err != nil {
			return err
		}

		evs := []BookingEvent{}
		if b.Status == models.BookingPending {
			evs = append(evs, EventConfirm)
		}
		if checkIn {
			evs = append(evs, EventCheckIn)
		}
		for _, ev := range evs {
			if err := s.applyEvent(tx, actor, b, ev, nil); err != nil {
				return err
			}
			fired = append(fired, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b, err := s.loadDetail(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	s.observe(fired...)
	evs := []events.Event{roomsAssignedEvent(b, actor)}
	if len(fired) > 0 {
		evs = append(evs, statusEvent(b, actor))
	}
	s.publish(ctx, evs...)
	return b, nil
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

// applyEvent runs one FSM step and all of its side effects inside tx.
func (s *BookingService) applyEvent(tx *gorm.DB, actor *auth.Principal, b *models.Booking, ev BookingEvent, reason *string) error {
	to, effects, err := Transition(b.Status, ev)
	if err != nil {
		return err
	}
	if ev == EventCheckIn && len(b.BookingRooms) == 0 {
		return ErrNoRoomsAssigned
	}

	now := s.Now().UTC()
	roomIDs := b.RoomIDs()
	updates := map[string]interface{}{"status": to}

	for _, eff := range effects {
		switch eff {
		case EffectSetConfirmedBy:
			if actor.IsAdmin() {
				updates["confirmed_by_admin_id"] = actor.ID
				b.ConfirmedByAdminID = &actor.ID
			} else if actor.IsStaff() {
				updates["confirmed_by_staff_id"] = actor.ID
				b.ConfirmedByStaffID = &actor.ID
			}
		case EffectSetCheckedInAt:
			updates["checked_in_at"] = now
			b.CheckedInAt = &now
		case EffectOccupyRooms:
			if err := setRoomsStatus(tx, roomIDs, models.RoomOccupied); err != nil {
				return err
			}
		case EffectSetCheckedOutAt:
			updates["checked_out_at"] = now
			b.CheckedOutAt = &now
		case EffectRoomsToCleaning:
			if err := setRoomsStatus(tx, roomIDs, models.RoomCleaning); err != nil {
				return err
			}
		case EffectSetCancelled:
			r := defaultStaffCancelReason
			if actor.IsCustomer() {
				r = defaultCustomerCancelReason
			}
			if reason != nil && strings.TrimSpace(*reason) != "" {
				r = strings.TrimSpace(*reason)
			}
			updates["cancelled_at"] = now
			updates["cancel_reason"] = r
			b.CancelledAt = &now
			b.CancelReason = &r
		case EffectReleaseRooms:
			if err := releaseRooms(tx, b.ID, roomIDs); err != nil {
				return err
			}
		}
	}

	// status guard: a concurrent writer that already moved the booking makes this a no-op
	res := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", b.ID, b.Status).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrInvalidTransition
	}
	b.Status = to
	return nil
}

type TransitionOptions struct {
	Reason *string
}

// Apply performs a lifecycle event on behalf of staff or an admin.
func (s *BookingService) Apply(ctx context.Context, actor *auth.Principal, bookingID uint, ev BookingEvent, opts TransitionOptions) (*models.Booking, error) {
	if actor == nil || actor.IsCustomer() {
		return nil, ErrForbidden
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := checkBookingAccess(actor, b); err != nil {
			return err
		}
		return s.applyEvent(tx, actor, b, ev, opts.Reason)
	})
	if err != nil {
		return nil, err
	}
	b, err := s.loadDetail(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	s.observe(ev)
	s.publish(ctx, statusEvent(b, actor))
	return b, nil
}

// CancelByCustomer lets a customer cancel their own PENDING or CONFIRMED
// booking. Any assigned rooms are released.
func (s *BookingService) CancelByCustomer(ctx context.Context, actor *auth.Principal, bookingID uint, reason *string) (*models.Booking, error) {
	if actor == nil || !actor.IsCustomer() {
		return nil, ErrForbidden
	}
	var cancelled models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := checkBookingAccess(actor, b); err != nil {
			return err
		}
		if b.Status != models.BookingPending && b.Status != models.BookingConfirmed {
			return ErrCannotCancel
		}
		if err := s.applyEvent(tx, actor, b, EventCancel, reason); err != nil {
			return err
		}
		cancelled = *b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(EventCancel)
	s.publish(ctx, statusEvent(&cancelled, actor))
	return &cancelled, nil
}

type UpdateBookingInput struct {
	Status       *models.BookingStatus
	CancelReason *string
	CheckIn      *string
	CheckOut     *string
	TotalPrice   *decimal.Decimal
}

// UpdateBooking edits dates or price and optionally drives the booking to
// a new status through the state machine.
func (s *BookingService) UpdateBooking(ctx context.Context, actor *auth.Principal, bookingID uint, in UpdateBookingInput) (*models.Booking, error) {
	if actor == nil || actor.IsCustomer() {
		return nil, ErrForbidden
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, Validation("无效的订单状态")
	}
	if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
		return nil, Validation("总价不能为负数")
	}

	var fired *BookingEvent
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fired = nil
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := checkBookingAccess(actor, b); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.CheckIn != nil || in.CheckOut != nil {
			ciRaw, coRaw := utils.FormatDate(b.CheckIn), utils.FormatDate(b.CheckOut)
			if in.CheckIn != nil {
				ciRaw = *in.CheckIn
			}
			if in.CheckOut != nil {
				coRaw = *in.CheckOut
			}
			ci, co, err := parseRange(ciRaw, coRaw)
			if err != nil {
				return err
			}
			if b.Status.Blocking() {
				for _, br := range b.BookingRooms {
					free, err := roomIsFree(tx, br.RoomID, ci, co, b.ID)
					if err != nil {
						return err
					}
					if !free {
						return ErrRoomUnavailable.WithMessage("已分配的房间在新日期内已被预订")
					}
				}
			}
			updates["check_in"] = ci
			updates["check_out"] = co
		}
		if in.TotalPrice != nil {
			updates["total_price"] = *in.TotalPrice
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Booking{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.Status != nil && *in.Status != b.Status {
			ev, err := EventForTarget(*in.Status)
			if err != nil {
				return err
			}
			if err := s.applyEvent(tx, actor, b, ev, in.CancelReason); err != nil {
				return err
			}
			fired = &ev
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b, err := s.loadDetail(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	if fired != nil {
		s.observe(*fired)
		s.publish(ctx, statusEvent(b, actor))
	}
	return b, nil
}

// PerformAction dispatches the front-desk actions on a booking.
func (s *BookingService) PerformAction(ctx context.Context, actor *auth.Principal, bookingID uint, action string, roomIDs []uint, reason *string) (*models.Booking, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "assign":
		return s.AssignAndCheckIn(ctx, actor, bookingID, roomIDs)
	case "assign_only":
		return s.AssignRooms(ctx, actor, bookingID, roomIDs)
	case "confirm":
		return s.Apply(ctx, actor, bookingID, EventConfirm, TransitionOptions{})
	case "checkin", "check_in":
		return s.Apply(ctx, actor, bookingID, EventCheckIn, TransitionOptions{})
	case "checkout", "check_out":
		return s.Apply(ctx, actor, bookingID, EventCheckOut, TransitionOptions{})
	case "complete":
		return s.Apply(ctx, actor, bookingID, EventComplete, TransitionOptions{})
	case "cancel":
		return s.Apply(ctx, actor, bookingID, EventCancel, TransitionOptions{Reason: reason})
	case "no_show", "noshow":
		return s.Apply(ctx, actor, bookingID, EventNoShow, TransitionOptions{})
	}
	return nil, Validation("无效的操作")
}

// ---------------------------------------------------------------------------
// Deletion
// ---------------------------------------------------------------------------

// DeleteBooking removes a PENDING, CANCELLED or COMPLETED booking together
// with its room links and review, releasing rooms it still occupies.
func (s *BookingService) DeleteBooking(ctx context.Context, actor *auth.Principal, bookingID uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	var deleted models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		switch b.Status {
		case models.BookingPending, models.BookingCancelled, models.BookingCompleted:
		default:
			return ErrBookingNotDeletable
		}
		if err := releaseRooms(tx, b.ID, b.RoomIDs()); err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", b.ID).Delete(&models.BookingRoom{}).Error; err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", b.ID).Delete(&models.BookingReview{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Booking{}, b.ID).Error; err != nil {
			return err
		}
		deleted = *b
		return nil
	})
	if err != nil {
		return err
	}
	if deleted.IsReviewed {
		s.Ratings.Invalidate(ctx, deleted.StoreID)
	}
	ev := statusEvent(&deleted, actor)
	ev.Type = events.BookingDeleted
	s.publish(ctx, ev)
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *BookingService) loadDetail(db *gorm.DB, bookingID uint) (*models.Booking, error) {
	var b models.Booking
	if err := db.
		Preload("Customer").
		Preload("Store").
		Preload("RoomType").
		Preload("BookingRooms.Room").
		Preload("Review").
		First(&b, bookingID).Error; err != nil {
		return nil, notFound(err, ErrBookingNotFound)
	}
	if b.BookingRooms == nil {
		b.BookingRooms = []models.BookingRoom{}
	}
	return &b, nil
}

// GetBooking returns the booking with its relations if the actor may see it.
func (s *BookingService) GetBooking(ctx context.Context, actor *auth.Principal, bookingID uint) (*models.Booking, error) {
	b, err := s.loadDetail(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	if err := checkBookingAccess(actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

type BookingFilter struct {
	Page          int
	Limit         int
	StoreID       *uint
	Status        *models.BookingStatus
	RoomTypeID    *uint
	CheckInDate   *time.Time // check_in on or after
	CheckOutDate  *time.Time // check_out on or before
	CustomerName  string
	CreatedByRole *models.Role
}

type BookingPage struct {
	Bookings   []models.Booking `json:"bookings"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// ListBookings pages through bookings. Staff only ever see their own store.
func (s *BookingService) ListBookings(ctx context.Context, actor *auth.Principal, f BookingFilter) (*BookingPage, error) {
	if actor == nil || actor.IsCustomer() {
		return nil, ErrForbidden
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	page := &BookingPage{Bookings: []models.Booking{}, Page: f.Page, Limit: f.Limit}

	q := s.DB.WithContext(ctx).Model(&models.Booking{})
	if actor.IsStaff() {
		if actor.StoreID == nil {
			return page, nil
		}
		q = q.Where("bookings.store_id = ?", *actor.StoreID)
	} else if f.StoreID != nil {
		q = q.Where("bookings.store_id = ?", *f.StoreID)
	}
	if f.Status != nil {
		q = q.Where("bookings.status = ?", *f.Status)
	}
	if f.RoomTypeID != nil {
		q = q.Where("bookings.room_type_id = ?", *f.RoomTypeID)
	}
	if f.CheckInDate != nil {
		q = q.Where("bookings.check_in >= ?", *f.CheckInDate)
	}
	if f.CheckOutDate != nil {
		q = q.Where("bookings.check_out <= ?", *f.CheckOutDate)
	}
	if f.CreatedByRole != nil {
		q = q.Where("bookings.created_by_role = ?", *f.CreatedByRole)
	}
	if name := strings.TrimSpace(f.CustomerName); name != "" {
		like := "%" + strings.ToLower(name) + "%"
		q = q.Joins("JOIN customers ON customers.id = bookings.customer_id").
			Where("LOWER(customers.name) LIKE ? OR LOWER(customers.email) LIKE ?", like, like)
	}

	if err := q.Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	if err := q.
		Preload("Customer").
		Preload("Store").
		Preload("RoomType").
		Preload("BookingRooms.Room").
		Order("bookings.created_at DESC, bookings.id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&page.Bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	page.TotalPages = int(math.Ceil(float64(page.Total) / float64(f.Limit)))
	return page, nil
}

// ListCustomerBookings returns a customer's own bookings, newest first.
func (s *BookingService) ListCustomerBookings(ctx context.Context, customerID uint) ([]models.Booking, error) {
	list := []models.Booking{}
	if err := s.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Preload("Store").
		Preload("RoomType").
		Preload("BookingRooms.Room").
		Preload("Review").
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	return list, nil
}

type AvailableRoomsResult struct {
	Booking        *models.Booking       `json:"booking"`
	AvailableRooms []models.Room         `json:"availableRooms"`
	RoomsByFloor   map[int][]models.Room `json:"roomsByFloor"`
	TotalAvailable int                   `json:"totalAvailable"`
}

// AvailableRoomsForBooking lists AVAILABLE rooms of the booking's store that
// are free for its dates, of the given type or else the booking's own type.
func (s *BookingService) AvailableRoomsForBooking(ctx context.Context, actor *auth.Principal, bookingID uint, roomTypeID *uint) (*AvailableRoomsResult, error) {
	b, err := s.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	typeID := b.RoomTypeID
	if roomTypeID != nil {
		typeID = *roomTypeID
	}
	rooms, err := freeRooms(s.DB.WithContext(ctx), b.StoreID, b.CheckIn, b.CheckOut, &typeID, b.ID, true)
	if err != nil {
		if errors.Is(err, ErrInvalidDateRange) {
			rooms = []models.Room{}
		} else {
			return nil, err
		}
	}
	byFloor := map[int][]models.Room{}
	for _, r := range rooms {
		byFloor[r.Floor] = append(byFloor[r.Floor], r)
	}
	return &AvailableRoomsResult{
		Booking:        b,
		AvailableRooms: rooms,
		RoomsByFloor:   byFloor,
		TotalAvailable: len(rooms),
	}, nil
}
