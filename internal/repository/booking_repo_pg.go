package repository

import (
	"context"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByTxRef(ctx context.Context, txRef string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Booking, error)
	UpdateDates(ctx context.Context, id int64, checkIn, checkOut time.Time) (*domain.Booking, error)
	MarkCancelled(ctx context.Context, id int64, reason string, at time.Time) (*domain.Booking, error)
	MarkExpired(ctx context.Context, id int64, reason string, at time.Time) (*domain.Booking, error)
	MarkInventoryReleased(ctx context.Context, id int64, at time.Time) error
	AddRoomType(ctx context.Context, item *domain.BookingRoomType) error
	DeleteRoomType(ctx context.Context, id int64) error
	RoomTypesByBooking(ctx context.Context, bookingID int64) ([]domain.BookingRoomType, error)
	BookingWindows(ctx context.Context, roomTypeID, excludeBookingID int64) ([]domain.BookingWindow, error)
	CheckedOutUnreleased(ctx context.Context, now time.Time) ([]domain.Booking, error)
	PendingCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, hotel_id, check_in_date, check_out_date, total_price, currency, payment_status, tx_ref, cancelled, cancellation_timestamp, cancellation_reason, inventory_released_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.UserID, &b.HotelID, &b.CheckInDate, &b.CheckOutDate, &b.TotalPrice, &b.Currency, &b.PaymentStatus, &b.TxRef, &b.Cancelled, &b.CancellationTimestamp, &b.CancellationReason, &b.InventoryReleasedAt, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	booking.PaymentStatus = domain.PaymentStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (user_id, hotel_id, check_in_date, check_out_date, total_price, currency, payment_status, tx_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		booking.UserID, booking.HotelID, booking.CheckInDate, booking.CheckOutDate, booking.TotalPrice, booking.Currency, booking.PaymentStatus, booking.TxRef).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByTxRef(ctx context.Context, txRef string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE tx_ref=$1`, txRef)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PGBookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, status, id)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateDates(ctx context.Context, id int64, checkIn, checkOut time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET check_in_date=$1, check_out_date=$2, updated_at=now() WHERE id=$3 RETURNING `+bookingColumns, checkIn, checkOut, id)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) MarkCancelled(ctx context.Context, id int64, reason string, at time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET cancelled=true, cancellation_reason=$1, cancellation_timestamp=$2, updated_at=now() WHERE id=$3 RETURNING `+bookingColumns, reason, at, id)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) MarkExpired(ctx context.Context, id int64, reason string, at time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET cancelled=true, payment_status=$1, cancellation_reason=$2, cancellation_timestamp=$3, updated_at=now() WHERE id=$4 RETURNING `+bookingColumns, domain.PaymentStatusFailed, reason, at, id)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) MarkInventoryReleased(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET inventory_released_at=$1, updated_at=now() WHERE id=$2 AND inventory_released_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyReleased
	}
	return nil
}

func (r *PGBookingRepository) AddRoomType(ctx context.Context, item *domain.BookingRoomType) error {
	return r.db.QueryRow(ctx, `INSERT INTO booking_room_types (booking_id, room_type_id, num_rooms, num_guests)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		item.BookingID, item.RoomTypeID, item.NumRooms, item.NumGuests).Scan(&item.ID)
}

func (r *PGBookingRepository) DeleteRoomType(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM booking_room_types WHERE id=$1`, id)
	return err
}

func (r *PGBookingRepository) RoomTypesByBooking(ctx context.Context, bookingID int64) ([]domain.BookingRoomType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, room_type_id, num_rooms, num_guests FROM booking_room_types WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.BookingRoomType, 0)
	for rows.Next() {
		var it domain.BookingRoomType
		if err := rows.Scan(&it.ID, &it.BookingID, &it.RoomTypeID, &it.NumRooms, &it.NumGuests); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// BookingWindows returns the date range and room count of every non-cancelled
// booking holding rooms of the given type. Overlap filtering happens in the
// availability checker, not here.
func (r *PGBookingRepository) BookingWindows(ctx context.Context, roomTypeID, excludeBookingID int64) ([]domain.BookingWindow, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.check_in_date, b.check_out_date, brt.num_rooms
		FROM booking_room_types brt
		JOIN bookings b ON b.id = brt.booking_id
		WHERE brt.room_type_id=$1 AND b.cancelled=false AND b.id != $2`, roomTypeID, excludeBookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]domain.BookingWindow, 0)
	for rows.Next() {
		var w domain.BookingWindow
		if err := rows.Scan(&w.BookingID, &w.CheckInDate, &w.CheckOutDate, &w.NumRooms); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *PGBookingRepository) CheckedOutUnreleased(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE cancelled=false AND inventory_released_at IS NULL AND check_out_date <= $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PGBookingRepository) PendingCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE payment_status=$1 AND cancelled=false AND created_at <= $2`, domain.PaymentStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
