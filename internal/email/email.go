package email

import (
	"context"
	"fmt"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		fmt.Printf("skip notification for booking %d (%s): no recipient on event\n", event.BookingID, event.Type)
		return nil
	}
	fmt.Printf("send email to %s about %s for booking %d at hotel %d\n", event.Email, event.Type, event.BookingID, event.HotelID)
	return nil
}
