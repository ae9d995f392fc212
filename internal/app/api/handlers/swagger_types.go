package handlers

import (
	"github.com/clubhouse/membership/internal/app/service/checkout"
	"github.com/clubhouse/membership/internal/app/service/membership"
	"github.com/clubhouse/membership/internal/app/service/statistics"
	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespMember struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Member            `json:"data"`
}

type RespMembers struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Member          `json:"data"`
}

type RespMemberList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    membership.ListResult    `json:"data"`
}

type RespVerify struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    membership.VerifyResult  `json:"data"`
}

type RespCheckIn struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    membership.CheckInResult `json:"data"`
}

// RespStatistic wraps StatisticResponse in the standard envelope.
type RespStatistic struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    statistics.StatisticResponse `json:"data"`
}

type RespCheckoutSession struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    checkout.CreateSessionResult `json:"data"`
}
