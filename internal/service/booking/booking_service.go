package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/kafka"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/payment"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/repository"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/availability"
)

const sweepLockTTL = 30 * time.Second

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	VerifyPayment(ctx context.Context, bookingID int64) (*domain.Booking, error)
	VerifyPaymentByTxRef(ctx context.Context, txRef string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64, reason string) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, []domain.BookingRoomType, error)
	ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	UpdateBookingDates(ctx context.Context, bookingID int64, checkIn, checkOut time.Time) (*domain.Booking, error)
	ReleaseCheckedOutInventory(ctx context.Context) (int, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

type AvailabilityChecker interface {
	Check(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, numGuests, numRooms int) availability.Result
	CheckExcluding(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, numGuests, numRooms int, excludeBookingID int64) availability.Result
}

type PaymentGateway interface {
	InitiateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	VerifyPayment(ctx context.Context, txRef string) (payment.Status, error)
}

type Cache interface {
	AcquireRoomTypeLock(ctx context.Context, roomTypeID int64, ttl time.Duration) (bool, error)
	ReleaseRoomTypeLock(ctx context.Context, roomTypeID int64) error
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	roomTypes          repository.RoomTypeRepository
	checker            AvailabilityChecker
	gateway            PaymentGateway
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	pendingTimeout     time.Duration
}

type RoomTypeRequest struct {
	RoomTypeID int64 `json:"roomtypeId"`
	NumRooms   int   `json:"num_rooms"`
	NumGuests  int   `json:"num_guests"`
}

type CreateBookingInput struct {
	HotelID      int64
	UserID       int64
	Email        string
	PhoneNumber  string
	Currency     string
	CheckInDate  time.Time
	CheckOutDate time.Time
	TotalPrice   float64
	RoomTypes    []RoomTypeRequest
}

type BookingSummary struct {
	TotalRooms  int               `json:"total_rooms"`
	TotalGuests int               `json:"total_guests"`
	RoomTypes   []RoomTypeRequest `json:"room_types"`
}

type CreateBookingResult struct {
	CheckoutURL string                   `json:"checkout_url"`
	Booking     *domain.Booking          `json:"booking"`
	RoomTypes   []domain.BookingRoomType `json:"booking_room_types"`
	Summary     BookingSummary           `json:"summary"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	roomTypes repository.RoomTypeRepository,
	checker AvailabilityChecker,
	gateway PaymentGateway,
	cache Cache,
	producer Producer,
	bookingTopic string,
	holdTTL, pendingTimeout time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		roomTypes:      roomTypes,
		checker:        checker,
		gateway:        gateway,
		cache:          cache,
		producer:       producer,
		bookingTopic:   bookingTopic,
		holdTTL:        holdTTL,
		pendingTimeout: pendingTimeout,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// sagaStep pairs one forward action with the compensation that undoes it.
// On failure, compensations of completed steps run in reverse order, so the
// unwind always goes inventory -> line items -> booking row.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

func runSaga(ctx context.Context, steps []sagaStep) error {
	var done []sagaStep
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].compensate == nil {
					continue
				}
				if cerr := done[i].compensate(ctx); cerr != nil {
					log.Printf("saga: compensate %q: %v", done[i].name, cerr)
				}
			}
			return err
		}
		done = append(done, step)
	}
	return nil
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if input.HotelID <= 0 {
		return nil, errors.New("hotel is required")
	}
	if input.UserID <= 0 || input.Email == "" {
		return nil, errors.New("user identity is required")
	}
	if input.CheckInDate.IsZero() || input.CheckOutDate.IsZero() {
		return nil, errors.New("check-in and check-out dates are required")
	}
	if !input.CheckInDate.Before(input.CheckOutDate) {
		return nil, errors.New("check-in date must be before check-out date")
	}
	if len(input.RoomTypes) == 0 {
		return nil, errors.New("at least one room type is required")
	}
	if input.TotalPrice <= 0 {
		return nil, errors.New("total price must be positive")
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	// Step 1: every requested room type must be available before anything is
	// written. Short-circuit on the first denial.
	totalRooms, totalGuests := 0, 0
	for _, rt := range input.RoomTypes {
		res := s.checker.Check(ctx, rt.RoomTypeID, input.CheckInDate, input.CheckOutDate, rt.NumGuests, rt.NumRooms)
		if !res.Available {
			return nil, fmt.Errorf("room type %d is not available: %s", rt.RoomTypeID, res.Reason)
		}
		totalRooms += rt.NumRooms
		totalGuests += rt.NumGuests
	}

	hotel, err := s.roomTypes.GetHotel(ctx, input.HotelID)
	if err != nil {
		return nil, fmt.Errorf("load hotel %d: %w", input.HotelID, err)
	}

	// Step 2: one checkout session for the whole order. A failure here aborts
	// with no persisted state.
	session, err := s.gateway.InitiateCheckout(ctx, payment.CheckoutRequest{
		Amount:       input.TotalPrice,
		Currency:     currency,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		Description:  fmt.Sprintf("%d room(s) for %d guest(s) at %s, %s to %s", totalRooms, totalGuests, hotel.Name, input.CheckInDate.Format("2006-01-02"), input.CheckOutDate.Format("2006-01-02")),
		SubaccountID: hotel.SubaccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("initiate checkout: %w", err)
	}

	// Room type locks span the re-check and the decrement so concurrent
	// requests cannot interleave between them. A lock miss aborts before any
	// persistence; the unredeemed checkout session simply expires.
	var locked []int64
	defer func() {
		for _, id := range locked {
			if err := s.releaseRoomTypeLock(ctx, id); err != nil {
				log.Printf("release room type lock %d: %v", id, err)
			}
		}
	}()
	for _, rt := range input.RoomTypes {
		ok, err := s.acquireRoomTypeLock(ctx, rt.RoomTypeID)
		if err != nil {
			return nil, fmt.Errorf("lock room type %d: %w", rt.RoomTypeID, err)
		}
		if !ok {
			return nil, fmt.Errorf("room type %d is being booked by another request, please try again", rt.RoomTypeID)
		}
		locked = append(locked, rt.RoomTypeID)
	}

	booking := &domain.Booking{
		UserID:        input.UserID,
		HotelID:       input.HotelID,
		CheckInDate:   input.CheckInDate,
		CheckOutDate:  input.CheckOutDate,
		TotalPrice:    input.TotalPrice,
		Currency:      currency,
		PaymentStatus: domain.PaymentStatusPending,
		TxRef:         session.TxRef,
	}

	// Steps 3-5: persist booking, persist line items, reserve inventory.
	// Each statement commits on its own; the step list carries the undo for
	// every completed step.
	steps := []sagaStep{{
		name: "persist booking",
		run: func(ctx context.Context) error {
			if err := s.bookings.Create(ctx, booking); err != nil {
				return fmt.Errorf("persist booking: %w", err)
			}
			return nil
		},
		compensate: func(ctx context.Context) error {
			return s.bookings.Delete(ctx, booking.ID)
		},
	}}

	lineItems := make([]*domain.BookingRoomType, len(input.RoomTypes))
	for i := range input.RoomTypes {
		rt := input.RoomTypes[i]
		item := &domain.BookingRoomType{RoomTypeID: rt.RoomTypeID, NumRooms: rt.NumRooms, NumGuests: rt.NumGuests}
		lineItems[i] = item
		steps = append(steps, sagaStep{
			name: fmt.Sprintf("persist line item for room type %d", rt.RoomTypeID),
			run: func(ctx context.Context) error {
				item.BookingID = booking.ID
				if err := s.bookings.AddRoomType(ctx, item); err != nil {
					return fmt.Errorf("persist line item for room type %d: %w", rt.RoomTypeID, err)
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.bookings.DeleteRoomType(ctx, item.ID)
			},
		})
	}

	for i := range input.RoomTypes {
		rt := input.RoomTypes[i]
		steps = append(steps, sagaStep{
			name: fmt.Sprintf("reserve inventory for room type %d", rt.RoomTypeID),
			run: func(ctx context.Context) error {
				// Re-check: availability may have changed since step 1. The
				// booking's own freshly persisted line items are excluded.
				res := s.checker.CheckExcluding(ctx, rt.RoomTypeID, input.CheckInDate, input.CheckOutDate, rt.NumGuests, rt.NumRooms, booking.ID)
				if !res.Available {
					return fmt.Errorf("room type %d is no longer available: %s", rt.RoomTypeID, res.Reason)
				}
				if err := s.roomTypes.ReserveRooms(ctx, rt.RoomTypeID, rt.NumRooms); err != nil {
					return fmt.Errorf("reserve %d room(s) of type %d: %w", rt.NumRooms, rt.RoomTypeID, err)
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.roomTypes.ReleaseRooms(ctx, rt.RoomTypeID, rt.NumRooms)
			},
		})
	}

	if err := runSaga(ctx, steps); err != nil {
		return nil, err
	}

	if err := s.publish(ctx, "booking_created", booking, input.Email); err != nil {
		log.Printf("WARNING: failed to publish booking_created event for booking %d: %v", booking.ID, err)
	}

	items := make([]domain.BookingRoomType, len(lineItems))
	for i, it := range lineItems {
		items[i] = *it
	}

	return &CreateBookingResult{
		CheckoutURL: session.CheckoutURL,
		Booking:     booking,
		RoomTypes:   items,
		Summary: BookingSummary{
			TotalRooms:  totalRooms,
			TotalGuests: totalGuests,
			RoomTypes:   input.RoomTypes,
		},
	}, nil
}

func (s *BookingService) VerifyPayment(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, booking)
}

func (s *BookingService) VerifyPaymentByTxRef(ctx context.Context, txRef string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByTxRef(ctx, txRef)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, booking)
}

func (s *BookingService) verify(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	// Verifying an already completed booking is a no-op success.
	if booking.PaymentStatus == domain.PaymentStatusCompleted {
		return booking, nil
	}
	if booking.TxRef == "" {
		return nil, errors.New("booking has no transaction reference")
	}

	status, err := s.gateway.VerifyPayment(ctx, booking.TxRef)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	switch status {
	case payment.StatusSuccess:
		updated, err := s.bookings.UpdatePaymentStatus(ctx, booking.ID, domain.PaymentStatusCompleted)
		if err != nil {
			return nil, err
		}
		if err := s.publish(ctx, "payment_completed", updated, ""); err != nil {
			log.Printf("WARNING: failed to publish payment_completed event for booking %d: %v", updated.ID, err)
		}
		return updated, nil
	case payment.StatusFailed:
		return s.bookings.UpdatePaymentStatus(ctx, booking.ID, domain.PaymentStatusFailed)
	default:
		return booking, nil
	}
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, reason string) (*domain.Booking, error) {
	s.sweep(ctx)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Cancelled {
		return nil, errors.New("booking is already cancelled")
	}

	updated, err := s.bookings.MarkCancelled(ctx, bookingID, reason, time.Now())
	if err != nil {
		return nil, err
	}

	s.releaseInventory(ctx, updated)

	if err := s.publish(ctx, "booking_cancelled", updated, ""); err != nil {
		log.Printf("WARNING: failed to publish booking_cancelled event for booking %d: %v", updated.ID, err)
	}
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, []domain.BookingRoomType, error) {
	s.sweep(ctx)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.bookings.RoomTypesByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return booking, items, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	s.sweep(ctx)
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) UpdateBookingDates(ctx context.Context, bookingID int64, checkIn, checkOut time.Time) (*domain.Booking, error) {
	s.sweep(ctx)

	if checkIn.IsZero() || checkOut.IsZero() {
		return nil, errors.New("check-in and check-out dates are required")
	}
	if !checkIn.Before(checkOut) {
		return nil, errors.New("check-in date must be before check-out date")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Cancelled {
		return nil, errors.New("cannot update a cancelled booking")
	}
	return s.bookings.UpdateDates(ctx, bookingID, checkIn, checkOut)
}

// ReleaseCheckedOutInventory frees inventory held by bookings whose stay is
// over. Checked-out is not cancelled: only inventory is returned.
func (s *BookingService) ReleaseCheckedOutInventory(ctx context.Context) (int, error) {
	checkedOut, err := s.bookings.CheckedOutUnreleased(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	for i := range checkedOut {
		s.releaseInventory(ctx, &checkedOut[i])
	}
	return len(checkedOut), nil
}

// ExpirePendingBookings cancels bookings stuck in pending payment beyond the
// timeout window and returns their inventory.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := time.Now().Add(-s.pendingTimeout)
	stale, err := s.bookings.PendingCreatedBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}

	expired := make([]domain.Booking, 0, len(stale))
	for _, b := range stale {
		updated, err := s.bookings.MarkExpired(ctx, b.ID, "pending payment timed out", time.Now())
		if err != nil {
			log.Printf("sweep: expire booking %d: %v", b.ID, err)
			continue
		}
		s.releaseInventory(ctx, updated)
		if err := s.publish(ctx, "booking_expired", updated, ""); err != nil {
			log.Printf("WARNING: failed to publish booking_expired event for booking %d: %v", updated.ID, err)
		}
		expired = append(expired, *updated)
	}
	return expired, nil
}

// sweep runs both reconciliation passes. It is called opportunistically from
// read and update paths and must never fail the caller.
func (s *BookingService) sweep(ctx context.Context) {
	if s.cache != nil {
		ok, err := s.cache.AcquireSweepLock(ctx, sweepLockTTL)
		if err != nil {
			log.Printf("sweep: acquire lock: %v", err)
			return
		}
		if !ok {
			return
		}
		defer func() {
			if err := s.cache.ReleaseSweepLock(ctx); err != nil {
				log.Printf("sweep: release lock: %v", err)
			}
		}()
	}

	if _, err := s.ReleaseCheckedOutInventory(ctx); err != nil {
		log.Printf("sweep: release checked-out inventory: %v", err)
	}
	if _, err := s.ExpirePendingBookings(ctx); err != nil {
		log.Printf("sweep: expire pending bookings: %v", err)
	}
}

// releaseInventory returns a booking's reserved rooms to their room types.
// The released marker is claimed first, so a booking's inventory goes back
// at most once no matter how many sweeps or cancellations race over it.
func (s *BookingService) releaseInventory(ctx context.Context, booking *domain.Booking) {
	if booking.InventoryReleasedAt != nil {
		return
	}
	if err := s.bookings.MarkInventoryReleased(ctx, booking.ID, time.Now()); err != nil {
		if !errors.Is(err, repository.ErrAlreadyReleased) {
			log.Printf("mark inventory released for booking %d: %v", booking.ID, err)
		}
		return
	}

	items, err := s.bookings.RoomTypesByBooking(ctx, booking.ID)
	if err != nil {
		log.Printf("load line items for booking %d: %v", booking.ID, err)
		return
	}
	for _, it := range items {
		if err := s.roomTypes.ReleaseRooms(ctx, it.RoomTypeID, it.NumRooms); err != nil {
			log.Printf("release %d room(s) of type %d for booking %d: %v", it.NumRooms, it.RoomTypeID, booking.ID, err)
		}
	}
}

func (s *BookingService) acquireRoomTypeLock(ctx context.Context, roomTypeID int64) (bool, error) {
	if s.cache == nil {
		return true, nil
	}
	return s.cache.AcquireRoomTypeLock(ctx, roomTypeID, s.holdTTL)
}

func (s *BookingService) releaseRoomTypeLock(ctx context.Context, roomTypeID int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.ReleaseRoomTypeLock(ctx, roomTypeID)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, email string) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		HotelID:       booking.HotelID,
		Email:         email,
		TxRef:         booking.TxRef,
		PaymentStatus: string(booking.PaymentStatus),
		Cancelled:     booking.Cancelled,
		CheckInDate:   booking.CheckInDate,
		CheckOutDate:  booking.CheckOutDate,
		TotalPrice:    booking.TotalPrice,
		Currency:      booking.Currency,
	}
	key := fmt.Sprintf("%d", booking.ID)
	if err := s.producer.Publish(ctx, s.bookingTopic, key, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, key, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
