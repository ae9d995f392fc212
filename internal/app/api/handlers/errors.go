package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubhouse/membership/internal/app/service/checkout"
	"github.com/clubhouse/membership/internal/app/service/membership"
	"github.com/clubhouse/membership/pkg/response"
)

// errorCode maps service errors to envelope codes.
func errorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, membership.ErrValidation),
		errors.Is(err, membership.ErrInvalidPlan),
		errors.Is(err, membership.ErrInvalidPaymentMethod),
		errors.Is(err, membership.ErrInvalidExpiry),
		errors.Is(err, membership.ErrAmbiguousMember):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, membership.ErrMemberNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, checkout.ErrUpstreamPayment):
		return response.APIResponseCodeUpstream
	}
	return response.APIResponseCodeError
}

func writeError(c *gin.Context, err error) {
	code := errorCode(err)
	if code == response.APIResponseCodeError {
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
}
