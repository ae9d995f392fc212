package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	wh "github.com/clubhouse/membership/internal/app/service/webhook_handler"
	"github.com/clubhouse/membership/internal/platform/stripe/stripe_webhook"
	"github.com/clubhouse/membership/pkg/logctx"
)

// @Summary      Stripe Webhook
// @Description  Receives Stripe events. The raw body is verified against the Stripe-Signature header.
// @Description  Responds 400 on a bad signature and 500 when handling failed so Stripe redelivers.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Stripe event"
// @Success      200  {object}  map[string]bool
// @Router       /api/stripe/webhook [post]
func ApiStripeWebhook(h *wh.Handler, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)
		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, stripe_webhook.MaxBodyBytes))
		if err != nil {
			log.Warnw("webhook_stripe_body_unreadable", "error", err.Error())
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return
		}

		err = h.Handle(c.Request.Context(), payload, c.GetHeader(stripe_webhook.SignatureHeader))
		switch {
		case errors.Is(err, stripe_webhook.ErrInvalidSignature):
			log.Warnw("webhook_stripe_rejected", "error", err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		case err != nil:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "handling failed"})
		default:
			c.JSON(http.StatusOK, gin.H{"received": true})
		}
	}
}

func RegisterStripeWebhookRoutes(r gin.IRouter, h *wh.Handler, log *zap.SugaredLogger) {
	r.POST("/webhook", ApiStripeWebhook(h, log))
}
