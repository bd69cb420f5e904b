package hotels

import (
	"context"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/repository"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/availability"
)

type HotelUseCase interface {
	ListRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error)
	CheckAvailability(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, numGuests, numRooms int) availability.Result
}

type RoomTypeCache interface {
	GetRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error)
	SetRoomTypes(ctx context.Context, hotelID int64, roomTypes []domain.RoomType) error
}

type AvailabilityChecker interface {
	Check(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, numGuests, numRooms int) availability.Result
}

type HotelService struct {
	repo    repository.RoomTypeRepository
	cache   RoomTypeCache
	checker AvailabilityChecker
}

func NewHotelService(repo repository.RoomTypeRepository, cache RoomTypeCache, checker AvailabilityChecker) *HotelService {
	return &HotelService{repo: repo, cache: cache, checker: checker}
}

func (s *HotelService) ListRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetRoomTypes(ctx, hotelID); err == nil && cached != nil {
			return cached, nil
		}
	}

	roomTypes, err := s.repo.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetRoomTypes(ctx, hotelID, roomTypes)
	}
	return roomTypes, nil
}

func (s *HotelService) CheckAvailability(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, numGuests, numRooms int) availability.Result {
	return s.checker.Check(ctx, roomTypeID, checkIn, checkOut, numGuests, numRooms)
}

var _ HotelUseCase = (*HotelService)(nil)
