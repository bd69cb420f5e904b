package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/config"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/bootstrap"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/cache"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/kafka"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/payment"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/repository"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/availability"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/booking"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/hotels"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.RoomTypesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	gateway := payment.NewClient(cfg.Payment)

	bookingRepo := repository.NewBookingRepository(pool)
	roomTypeRepo := repository.NewRoomTypeRepository(pool)
	checker := availability.NewChecker(roomTypeRepo, bookingRepo)

	hotelService := hotels.NewHotelService(roomTypeRepo, redisCache, checker)
	bookingService := booking.NewBookingService(
		bookingRepo,
		roomTypeRepo,
		checker,
		gateway,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.HoldTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.PendingTimeoutMinutes)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, bookingService, hotelService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
