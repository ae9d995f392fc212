package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/clubhouse/membership/internal/app/api/server"
	"github.com/clubhouse/membership/internal/app/service/checkout"
	"github.com/clubhouse/membership/internal/app/service/membership"
	eventlog "github.com/clubhouse/membership/internal/app/service/payment_event_log"
	"github.com/clubhouse/membership/internal/app/service/statistics"
	"github.com/clubhouse/membership/internal/app/service/webhook_handler"
	"github.com/clubhouse/membership/internal/platform/db"
	"github.com/clubhouse/membership/internal/platform/stripe"
	"github.com/clubhouse/membership/pkg/config"
	"github.com/clubhouse/membership/pkg/logger"
	"github.com/clubhouse/membership/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	stripe.Module,
	membership.Module,
	checkout.Module,
	statistics.Module,
	eventlog.Module,
	webhook_handler.Module,
	server.Module,
)
