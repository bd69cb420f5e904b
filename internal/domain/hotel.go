package domain

import "time"

type Hotel struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SubaccountID string `json:"subaccount_id"`
}

type RoomType struct {
	ID                 int64     `json:"id"`
	HotelID            int64     `json:"hotel_id"`
	Type               string    `json:"type"`
	MaxOccupancy       int       `json:"max_occupancy"`
	TotalInventory     int       `json:"total_inventory"`
	AvailableInventory int       `json:"available_inventory"`
	NumBeds            int       `json:"num_beds"`
	RoomSize           float64   `json:"room_size"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
