package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/Nestly-dev/Nestly-App-sub001/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Webhook-Signature"

type WebhookHandler struct {
	service booking.BookingUseCase
	secret  string
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		TxRef    string  `json:"tx_ref"`
		Status   string  `json:"status"`
		Currency string  `json:"currency"`
		Amount   float64 `json:"amount"`
	} `json:"data"`
}

func NewWebhookHandler(service booking.BookingUseCase, secret string) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/payment", h.handle)
}

func (h *WebhookHandler) handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	// Signature is HMAC-SHA256 over the raw body with the shared secret.
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(c.GetHeader(signatureHeader))) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch event.Event {
	case "charge.completed", "charge.failed":
		// Status mutation on webhook receipt is best-effort: the verify
		// endpoint remains the source of truth for clients.
		if _, err := h.service.VerifyPaymentByTxRef(c.Request.Context(), event.Data.TxRef); err != nil {
			log.Printf("webhook: verify payment for tx_ref %s: %v", event.Data.TxRef, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
