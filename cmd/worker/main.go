package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/config"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/cache"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/email"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/kafka"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/payment"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/repository"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/availability"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/booking"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.RoomTypesCacheTTL)*time.Second)
	gateway := payment.NewClient(cfg.Payment)

	bookingRepo := repository.NewBookingRepository(pool)
	roomTypeRepo := repository.NewRoomTypeRepository(pool)
	checker := availability.NewChecker(roomTypeRepo, bookingRepo)
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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.SweepIntervalMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			released, err := bookingService.ReleaseCheckedOutInventory(ctx)
			if err != nil {
				log.Printf("checked-out sweep error: %v", err)
			} else if released > 0 {
				log.Printf("released inventory for %d checked-out bookings", released)
			}

			expired, err := bookingService.ExpirePendingBookings(ctx)
			if err != nil {
				log.Printf("pending sweep error: %v", err)
				continue
			}
			if len(expired) > 0 {
				log.Printf("expired %d pending bookings", len(expired))
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
