package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/hotels"
	"github.com/gin-gonic/gin"
)

type HotelHandler struct {
	service hotels.HotelUseCase
}

type availabilityRequest struct {
	RoomTypeID   int64  `json:"roomtypeId" binding:"required"`
	CheckInDate  string `json:"check_in_date" binding:"required"`
	CheckOutDate string `json:"check_out_date" binding:"required"`
	NumRooms     int    `json:"num_rooms" binding:"required"`
	NumGuests    int    `json:"num_guests"`
}

func NewHotelHandler(service hotels.HotelUseCase) *HotelHandler {
	return &HotelHandler{service: service}
}

func (h *HotelHandler) Register(router *gin.RouterGroup) {
	router.GET("/:hotelId/room-types", h.listRoomTypes)
	router.POST("/:hotelId/availability", h.checkAvailability)
}

func (h *HotelHandler) listRoomTypes(c *gin.Context) {
	hotelID, err := strconv.ParseInt(c.Param("hotelId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hotel id"})
		return
	}

	roomTypes, err := h.service.ListRoomTypes(c.Request.Context(), hotelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_types": roomTypes})
}

func (h *HotelHandler) checkAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, err := time.Parse(dateLayout, req.CheckInDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in_date, expected YYYY-MM-DD"})
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOutDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out_date, expected YYYY-MM-DD"})
		return
	}

	result := h.service.CheckAvailability(c.Request.Context(), req.RoomTypeID, checkIn, checkOut, req.NumGuests, req.NumRooms)
	c.JSON(http.StatusOK, result)
}
