package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*booking.CreateBookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CreateBookingResult), args.Error(1)
}

func (m *MockBookingService) VerifyPayment(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) VerifyPaymentByTxRef(ctx context.Context, txRef string) (*domain.Booking, error) {
	args := m.Called(ctx, txRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, bookingID int64, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, []domain.BookingRoomType, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Booking), args.Get(1).([]domain.BookingRoomType), args.Error(2)
}

func (m *MockBookingService) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateBookingDates(ctx context.Context, bookingID int64, checkIn, checkOut time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, checkIn, checkOut)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ReleaseCheckedOutInventory(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func newBookingRouter(service booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewBookingHandler(service).Register(router.Group("/bookings"))
	return router
}

func performRequest(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func identityHeaders() map[string]string {
	return map[string]string{
		"X-User-ID":       "3",
		"X-User-Email":    "guest@example.com",
		"X-User-Phone":    "+15550100",
		"X-User-Currency": "USD",
	}
}

func TestBookingHandler_Create(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	body, _ := json.Marshal(gin.H{
		"check_in_date":  "2024-06-01",
		"check_out_date": "2024-06-05",
		"total_price":    420,
		"roomTypes": []gin.H{
			{"roomtypeId": 1, "num_rooms": 2, "num_guests": 4},
		},
	})

	service.On("CreateBooking", mock.Anything, mock.MatchedBy(func(input booking.CreateBookingInput) bool {
		return input.HotelID == 7 &&
			input.UserID == 3 &&
			input.Email == "guest@example.com" &&
			input.Currency == "USD" &&
			input.CheckInDate.Format("2006-01-02") == "2024-06-01" &&
			len(input.RoomTypes) == 1 && input.RoomTypes[0].NumRooms == 2
	})).Return(&booking.CreateBookingResult{
		CheckoutURL: "https://pay.example/link",
		Booking:     &domain.Booking{ID: 100, HotelID: 7, UserID: 3},
	}, nil).Once()

	w := performRequest(router, http.MethodPost, "/bookings/create/7", body, identityHeaders())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "https://pay.example/link")
	service.AssertExpectations(t)
}

func TestBookingHandler_Create_MissingIdentity(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	body, _ := json.Marshal(gin.H{
		"check_in_date":  "2024-06-01",
		"check_out_date": "2024-06-05",
		"total_price":    420,
		"roomTypes":      []gin.H{{"roomtypeId": 1, "num_rooms": 1, "num_guests": 1}},
	})

	w := performRequest(router, http.MethodPost, "/bookings/create/7", body, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing user identity")
	service.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_Create_InvalidDate(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	body, _ := json.Marshal(gin.H{
		"check_in_date":  "01/06/2024",
		"check_out_date": "2024-06-05",
		"total_price":    420,
		"roomTypes":      []gin.H{{"roomtypeId": 1, "num_rooms": 1, "num_guests": 1}},
	})

	w := performRequest(router, http.MethodPost, "/bookings/create/7", body, identityHeaders())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid check_in_date")
	service.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_Create_ServiceError(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	body, _ := json.Marshal(gin.H{
		"check_in_date":  "2024-06-01",
		"check_out_date": "2024-06-05",
		"total_price":    420,
		"roomTypes":      []gin.H{{"roomtypeId": 1, "num_rooms": 1, "num_guests": 1}},
	})

	service.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, errors.New("room type 1 is not available: fully booked")).Once()

	w := performRequest(router, http.MethodPost, "/bookings/create/7", body, identityHeaders())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "room type 1 is not available")
}

func TestBookingHandler_Get(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	service.On("GetBooking", mock.Anything, int64(100)).Return(
		&domain.Booking{ID: 100, UserID: 3},
		[]domain.BookingRoomType{{ID: 10, BookingID: 100, RoomTypeID: 1, NumRooms: 2}},
		nil,
	).Once()

	w := performRequest(router, http.MethodGet, "/bookings/100", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"booking"`)
	assert.Contains(t, w.Body.String(), `"booking_room_types"`)
}

func TestBookingHandler_Get_NotFound(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	service.On("GetBooking", mock.Anything, int64(999)).Return(nil, nil, errors.New("not found")).Once()

	w := performRequest(router, http.MethodGet, "/bookings/999", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_ListByUser(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	service.On("ListUserBookings", mock.Anything, int64(3)).Return([]domain.Booking{{ID: 100, UserID: 3}}, nil).Once()

	w := performRequest(router, http.MethodGet, "/bookings/user/3", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bookings"`)
}

func TestBookingHandler_ListByUser_InvalidID(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	w := performRequest(router, http.MethodGet, "/bookings/user/abc", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "ListUserBookings", mock.Anything, mock.Anything)
}

func TestBookingHandler_VerifyPayment(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	service.On("VerifyPayment", mock.Anything, int64(100)).Return(&domain.Booking{ID: 100, PaymentStatus: domain.PaymentStatusCompleted}, nil).Once()

	w := performRequest(router, http.MethodGet, "/bookings/100/verify-payment", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(domain.PaymentStatusCompleted))
}

func TestBookingHandler_Update(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	body, _ := json.Marshal(gin.H{"check_in_date": "2024-07-01", "check_out_date": "2024-07-03"})

	service.On("UpdateBookingDates", mock.Anything, int64(100), mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(&domain.Booking{ID: 100}, nil).Once()

	w := performRequest(router, http.MethodPatch, "/bookings/100", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestBookingHandler_Cancel(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	body, _ := json.Marshal(gin.H{"cancellation_reason": "plans changed"})

	service.On("CancelBooking", mock.Anything, int64(100), "plans changed").Return(&domain.Booking{ID: 100, Cancelled: true}, nil).Once()

	w := performRequest(router, http.MethodPatch, "/bookings/cancel/100", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":true`)
	service.AssertExpectations(t)
}

func TestBookingHandler_Cancel_MissingReason(t *testing.T) {
	service := &MockBookingService{}
	router := newBookingRouter(service)

	w := performRequest(router, http.MethodPatch, "/bookings/cancel/100", []byte(`{}`), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything)
}
