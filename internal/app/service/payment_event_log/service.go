package payment_event_log

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/pkg/logctx"
	"github.com/clubhouse/membership/pkg/tool"
)

const saveTimeout = 5 * time.Second

type Service struct {
	store store.EventLogStore
	log   *zap.SugaredLogger
	wg    sync.WaitGroup
}

func New(s store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: s, log: log}
}

// Save asynchronously persists a payment event log. Nil input is ignored.
// The write outlives the request context.
func (s *Service) Save(ctx context.Context, log *models.PaymentEventLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		defer cancel()
		if err := s.store.SavePaymentEvent(saveCtx, log); err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save payment event log: %v", err)
		}
	}()
}

// Wait blocks until pending saves finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func registerFlush(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				s.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerFlush),
)
