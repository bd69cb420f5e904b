package repository

import (
	"context"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.RoomType, error)
	ListByHotel(ctx context.Context, hotelID int64) ([]domain.RoomType, error)
	GetHotel(ctx context.Context, id int64) (*domain.Hotel, error)
	ReserveRooms(ctx context.Context, roomTypeID int64, numRooms int) error
	ReleaseRooms(ctx context.Context, roomTypeID int64, numRooms int) error
}

type PGRoomTypeRepository struct {
	db *pgxpool.Pool
}

func NewRoomTypeRepository(db *pgxpool.Pool) RoomTypeRepository {
	return &PGRoomTypeRepository{db: db}
}

const roomTypeColumns = `id, hotel_id, type, max_occupancy, total_inventory, available_inventory, num_beds, room_size, created_at, updated_at`

func (r *PGRoomTypeRepository) GetByID(ctx context.Context, id int64) (*domain.RoomType, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id=$1`, id)
	var rt domain.RoomType
	if err := row.Scan(&rt.ID, &rt.HotelID, &rt.Type, &rt.MaxOccupancy, &rt.TotalInventory, &rt.AvailableInventory, &rt.NumBeds, &rt.RoomSize, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *PGRoomTypeRepository) ListByHotel(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE hotel_id=$1 ORDER BY id`, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roomTypes := make([]domain.RoomType, 0)
	for rows.Next() {
		var rt domain.RoomType
		if err := rows.Scan(&rt.ID, &rt.HotelID, &rt.Type, &rt.MaxOccupancy, &rt.TotalInventory, &rt.AvailableInventory, &rt.NumBeds, &rt.RoomSize, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		roomTypes = append(roomTypes, rt)
	}
	return roomTypes, rows.Err()
}

func (r *PGRoomTypeRepository) GetHotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, subaccount_id FROM hotels WHERE id=$1`, id)
	var h domain.Hotel
	if err := row.Scan(&h.ID, &h.Name, &h.SubaccountID); err != nil {
		return nil, err
	}
	return &h, nil
}

// ReserveRooms decrements available_inventory in a single conditional update,
// so two concurrent reservations cannot both take the last rooms.
func (r *PGRoomTypeRepository) ReserveRooms(ctx context.Context, roomTypeID int64, numRooms int) error {
	res, err := r.db.Exec(ctx, `UPDATE room_types SET available_inventory = available_inventory - $1, updated_at = now() WHERE id=$2 AND available_inventory >= $1`, numRooms, roomTypeID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNoInventory
	}
	return nil
}

func (r *PGRoomTypeRepository) ReleaseRooms(ctx context.Context, roomTypeID int64, numRooms int) error {
	res, err := r.db.Exec(ctx, `UPDATE room_types SET available_inventory = LEAST(available_inventory + $1, total_inventory), updated_at = now() WHERE id=$2`, numRooms, roomTypeID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ RoomTypeRepository = (*PGRoomTypeRepository)(nil)
