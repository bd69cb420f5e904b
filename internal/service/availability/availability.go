package availability

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Result is what callers get instead of an error: the check never throws,
// a denial carries the counts needed to explain it.
type Result struct {
	Available      bool   `json:"available"`
	TotalInventory int    `json:"total_inventory"`
	BookedRooms    int    `json:"booked_rooms"`
	AvailableRooms int    `json:"available_rooms"`
	Reason         string `json:"reason,omitempty"`
}

type RoomTypeGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.RoomType, error)
}

type BookingWindowLister interface {
	BookingWindows(ctx context.Context, roomTypeID, excludeBookingID int64) ([]domain.BookingWindow, error)
}

type Checker struct {
	roomTypes RoomTypeGetter
	bookings  BookingWindowLister
}

func NewChecker(roomTypes RoomTypeGetter, bookings BookingWindowLister) *Checker {
	return &Checker{roomTypes: roomTypes, bookings: bookings}
}

func (c *Checker) Check(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, numGuests, numRooms int) Result {
	return c.CheckExcluding(ctx, roomTypeID, checkIn, checkOut, numGuests, numRooms, 0)
}

// CheckExcluding ignores one booking when counting booked rooms. The saga
// re-checks availability after its own line items are persisted and must not
// count them against itself.
func (c *Checker) CheckExcluding(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, numGuests, numRooms int, excludeBookingID int64) Result {
	if roomTypeID <= 0 || checkIn.IsZero() || checkOut.IsZero() {
		return deny("missing room type or dates")
	}
	if !checkIn.Before(checkOut) {
		return deny("check-in date must be before check-out date")
	}
	if numRooms <= 0 {
		return deny("number of rooms must be positive")
	}

	roomType, err := c.roomTypes.GetByID(ctx, roomTypeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return deny(fmt.Sprintf("room type %d not found", roomTypeID))
		}
		log.Printf("availability: load room type %d: %v", roomTypeID, err)
		return deny("system error while checking availability, please try again")
	}

	if numGuests > roomType.MaxOccupancy*numRooms {
		return deny(fmt.Sprintf("%d guests exceed the maximum occupancy of %d for %d %s room(s)", numGuests, roomType.MaxOccupancy*numRooms, numRooms, roomType.Type))
	}

	windows, err := c.bookings.BookingWindows(ctx, roomTypeID, excludeBookingID)
	if err != nil {
		log.Printf("availability: list bookings for room type %d: %v", roomTypeID, err)
		return deny("system error while checking availability, please try again")
	}

	booked := 0
	for _, w := range windows {
		if Overlaps(w.CheckInDate, w.CheckOutDate, checkIn, checkOut) {
			booked += w.NumRooms
		}
	}

	available := roomType.TotalInventory - booked
	if available < 0 {
		available = 0
	}

	result := Result{
		TotalInventory: roomType.TotalInventory,
		BookedRooms:    booked,
		AvailableRooms: available,
	}
	if available < numRooms {
		result.Reason = fmt.Sprintf("requested %d room(s) but only %d of %d are available (%d already booked)", numRooms, available, roomType.TotalInventory, booked)
		return result
	}
	result.Available = true
	return result
}

// Overlaps reports whether an existing booking's range conflicts with a
// requested one: existing.checkIn <= requested.checkOut AND
// existing.checkOut >= requested.checkIn. Both comparisons are inclusive.
func Overlaps(existingIn, existingOut, requestedIn, requestedOut time.Time) bool {
	return !existingIn.After(requestedOut) && !existingOut.Before(requestedIn)
}

func deny(reason string) Result {
	return Result{Available: false, Reason: reason}
}
