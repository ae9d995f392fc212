package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubhouse/membership/internal/app/service/checkout"
	"github.com/clubhouse/membership/pkg/response"
)

// @Summary      Create Checkout Session
// @Description  Prices the plan, mints a membership key and opens a Stripe Checkout session.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.CreateSessionRequest true "Checkout request"
// @Success      200  {object}  handlers.RespCheckoutSession
// @Router       /api/checkout/create-checkout-session [post]
func ApiCreateCheckoutSession(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		res, err := svc.CreateSession(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, svc *checkout.Service) {
	r.POST("/create-checkout-session", ApiCreateCheckoutSession(svc))
}
