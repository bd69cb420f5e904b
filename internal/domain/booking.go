package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Booking struct {
	ID                    int64         `json:"id"`
	UserID                int64         `json:"user_id"`
	HotelID               int64         `json:"hotel_id"`
	CheckInDate           time.Time     `json:"check_in_date"`
	CheckOutDate          time.Time     `json:"check_out_date"`
	TotalPrice            float64       `json:"total_price"`
	Currency              string        `json:"currency"`
	PaymentStatus         PaymentStatus `json:"payment_status"`
	TxRef                 string        `json:"tx_ref"`
	Cancelled             bool          `json:"cancelled"`
	CancellationTimestamp *time.Time    `json:"cancellation_timestamp,omitempty"`
	CancellationReason    string        `json:"cancellation_reason,omitempty"`
	InventoryReleasedAt   *time.Time    `json:"inventory_released_at,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

type BookingRoomType struct {
	ID         int64 `json:"id"`
	BookingID  int64 `json:"booking_id"`
	RoomTypeID int64 `json:"room_type_id"`
	NumRooms   int   `json:"num_rooms"`
	NumGuests  int   `json:"num_guests"`
}

// BookingWindow is the slice of a booking the availability math needs:
// its date range and how many rooms of one room type it holds.
type BookingWindow struct {
	BookingID    int64
	CheckInDate  time.Time
	CheckOutDate time.Time
	NumRooms     int
}
