package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRoomTypeGetter struct {
	mock.Mock
}

func (m *MockRoomTypeGetter) GetByID(ctx context.Context, id int64) (*domain.RoomType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoomType), args.Error(1)
}

type MockBookingWindowLister struct {
	mock.Mock
}

func (m *MockBookingWindowLister) BookingWindows(ctx context.Context, roomTypeID, excludeBookingID int64) ([]domain.BookingWindow, error) {
	args := m.Called(ctx, roomTypeID, excludeBookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingWindow), args.Error(1)
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestChecker(total, maxOccupancy int, windows []domain.BookingWindow) (*Checker, *MockRoomTypeGetter, *MockBookingWindowLister) {
	roomTypes := &MockRoomTypeGetter{}
	bookings := &MockBookingWindowLister{}
	roomTypes.On("GetByID", mock.Anything, int64(1)).Return(&domain.RoomType{
		ID:             1,
		HotelID:        7,
		Type:           "Deluxe King",
		MaxOccupancy:   maxOccupancy,
		TotalInventory: total,
	}, nil)
	bookings.On("BookingWindows", mock.Anything, int64(1), int64(0)).Return(windows, nil)
	return NewChecker(roomTypes, bookings), roomTypes, bookings
}

func TestChecker_Check_AvailableInventoryArithmetic(t *testing.T) {
	windows := []domain.BookingWindow{
		{BookingID: 10, CheckInDate: date("2024-06-01"), CheckOutDate: date("2024-06-05"), NumRooms: 2},
		{BookingID: 11, CheckInDate: date("2024-06-03"), CheckOutDate: date("2024-06-07"), NumRooms: 1},
	}
	checker, _, _ := newTestChecker(5, 2, windows)

	res := checker.Check(context.Background(), 1, date("2024-06-02"), date("2024-06-04"), 2, 2)

	assert.True(t, res.Available)
	assert.Equal(t, 5, res.TotalInventory)
	assert.Equal(t, 3, res.BookedRooms)
	assert.Equal(t, 2, res.AvailableRooms)
}

func TestChecker_Check_DeniesOverRequest(t *testing.T) {
	windows := []domain.BookingWindow{
		{BookingID: 10, CheckInDate: date("2024-06-01"), CheckOutDate: date("2024-06-05"), NumRooms: 3},
	}
	checker, _, _ := newTestChecker(5, 2, windows)

	res := checker.Check(context.Background(), 1, date("2024-06-02"), date("2024-06-04"), 2, 3)

	assert.False(t, res.Available)
	assert.Equal(t, 2, res.AvailableRooms)
	assert.Contains(t, res.Reason, "requested 3 room(s)")
	assert.Contains(t, res.Reason, "only 2 of 5")
	assert.Contains(t, res.Reason, "3 already booked")
}

func TestChecker_Check_BookedNeverExceedsAvailableFloor(t *testing.T) {
	windows := []domain.BookingWindow{
		{BookingID: 10, CheckInDate: date("2024-06-01"), CheckOutDate: date("2024-06-10"), NumRooms: 7},
	}
	checker, _, _ := newTestChecker(5, 2, windows)

	res := checker.Check(context.Background(), 1, date("2024-06-02"), date("2024-06-04"), 1, 1)

	assert.False(t, res.Available)
	assert.Equal(t, 0, res.AvailableRooms)
	assert.Equal(t, 7, res.BookedRooms)
}

// Overlap rule: existing.checkIn <= requested.checkOut AND
// existing.checkOut >= requested.checkIn, both inclusive. One case per boundary.
func TestChecker_Check_OverlapBoundaries(t *testing.T) {
	testCases := []struct {
		name       string
		existingIn string
		existingOut string
		overlaps   bool
	}{
		{"fully before", "2024-05-01", "2024-05-20", false},
		{"fully after", "2024-06-20", "2024-06-25", false},
		{"existing checkout equals requested checkin", "2024-05-28", "2024-06-01", true},
		{"existing checkin equals requested checkout", "2024-06-05", "2024-06-09", true},
		{"existing checkout one day before requested checkin", "2024-05-28", "2024-05-31", false},
		{"existing checkin one day after requested checkout", "2024-06-06", "2024-06-09", false},
		{"contained inside request", "2024-06-02", "2024-06-04", true},
		{"containing the request", "2024-05-28", "2024-06-09", true},
		{"identical range", "2024-06-01", "2024-06-05", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			windows := []domain.BookingWindow{
				{BookingID: 10, CheckInDate: date(tc.existingIn), CheckOutDate: date(tc.existingOut), NumRooms: 5},
			}
			checker, _, _ := newTestChecker(5, 4, windows)

			res := checker.Check(context.Background(), 1, date("2024-06-01"), date("2024-06-05"), 2, 1)

			if tc.overlaps {
				assert.False(t, res.Available, "expected range to count as overlapping")
				assert.Equal(t, 5, res.BookedRooms)
			} else {
				assert.True(t, res.Available, "expected range to be free")
				assert.Equal(t, 0, res.BookedRooms)
			}
		})
	}
}

func TestChecker_Check_ValidationDenials(t *testing.T) {
	checker := NewChecker(&MockRoomTypeGetter{}, &MockBookingWindowLister{})
	ctx := context.Background()

	testCases := []struct {
		name     string
		run      func() Result
		expected string
	}{
		{
			name:     "missing room type",
			run:      func() Result { return checker.Check(ctx, 0, date("2024-06-01"), date("2024-06-05"), 2, 1) },
			expected: "missing room type or dates",
		},
		{
			name:     "missing dates",
			run:      func() Result { return checker.Check(ctx, 1, time.Time{}, time.Time{}, 2, 1) },
			expected: "missing room type or dates",
		},
		{
			name:     "check-in after check-out",
			run:      func() Result { return checker.Check(ctx, 1, date("2024-06-05"), date("2024-06-01"), 2, 1) },
			expected: "check-in date must be before check-out date",
		},
		{
			name:     "check-in equal to check-out",
			run:      func() Result { return checker.Check(ctx, 1, date("2024-06-01"), date("2024-06-01"), 2, 1) },
			expected: "check-in date must be before check-out date",
		},
		{
			name:     "zero rooms",
			run:      func() Result { return checker.Check(ctx, 1, date("2024-06-01"), date("2024-06-05"), 2, 0) },
			expected: "number of rooms must be positive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := tc.run()
			assert.False(t, res.Available)
			assert.Equal(t, tc.expected, res.Reason)
		})
	}
}

func TestChecker_Check_RoomTypeNotFound(t *testing.T) {
	roomTypes := &MockRoomTypeGetter{}
	bookings := &MockBookingWindowLister{}
	roomTypes.On("GetByID", mock.Anything, int64(42)).Return(nil, pgx.ErrNoRows)
	checker := NewChecker(roomTypes, bookings)

	res := checker.Check(context.Background(), 42, date("2024-06-01"), date("2024-06-05"), 2, 1)

	assert.False(t, res.Available)
	assert.Equal(t, "room type 42 not found", res.Reason)
}

func TestChecker_Check_OccupancyExceeded(t *testing.T) {
	checker, _, _ := newTestChecker(5, 2, nil)

	res := checker.Check(context.Background(), 1, date("2024-06-01"), date("2024-06-05"), 5, 2)

	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "maximum occupancy")
}

// Data-access failures come back as a generic denial, never an error.
func TestChecker_Check_RepositoryErrorsBecomeSystemDenials(t *testing.T) {
	roomTypes := &MockRoomTypeGetter{}
	bookings := &MockBookingWindowLister{}
	roomTypes.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("connection refused"))
	checker := NewChecker(roomTypes, bookings)

	res := checker.Check(context.Background(), 1, date("2024-06-01"), date("2024-06-05"), 2, 1)

	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "system error")

	roomTypes = &MockRoomTypeGetter{}
	bookings = &MockBookingWindowLister{}
	roomTypes.On("GetByID", mock.Anything, int64(1)).Return(&domain.RoomType{ID: 1, MaxOccupancy: 2, TotalInventory: 5}, nil)
	bookings.On("BookingWindows", mock.Anything, int64(1), int64(0)).Return(nil, errors.New("connection refused"))
	checker = NewChecker(roomTypes, bookings)

	res = checker.Check(context.Background(), 1, date("2024-06-01"), date("2024-06-05"), 2, 1)

	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "system error")
}

func TestChecker_CheckExcluding_IgnoresOwnBooking(t *testing.T) {
	roomTypes := &MockRoomTypeGetter{}
	bookings := &MockBookingWindowLister{}
	roomTypes.On("GetByID", mock.Anything, int64(1)).Return(&domain.RoomType{ID: 1, MaxOccupancy: 2, TotalInventory: 3}, nil)
	// The repository filters the excluded booking out of the window set.
	bookings.On("BookingWindows", mock.Anything, int64(1), int64(99)).Return([]domain.BookingWindow{}, nil)
	checker := NewChecker(roomTypes, bookings)

	res := checker.CheckExcluding(context.Background(), 1, date("2024-06-01"), date("2024-06-05"), 2, 3, 99)

	assert.True(t, res.Available)
	assert.Equal(t, 0, res.BookedRooms)
	bookings.AssertExpectations(t)
}
