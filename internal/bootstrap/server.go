package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/api"
	"github.com/Nestly-dev/Nestly-App-sub001/config"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/booking"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/hotels"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, hotelSvc hotels.HotelUseCase) error {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewHotelHandler(hotelSvc).Register(router.Group("/hotels"))
	api.NewWebhookHandler(bookingSvc, cfg.Payment.WebhookSecret).Register(router.Group("/webhooks"))

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
