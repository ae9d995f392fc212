package gormlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clubhouse/membership/pkg/logctx"
)

func TestShortCaller(t *testing.T) {
	require.Equal(t, "internal/store/gormstore/gormstore.go:38", shortCaller("/home/ci/clubhouse/internal/store/gormstore/gormstore.go:38"))
	require.Equal(t, "pkg/x/y.go:12", shortCaller("/src/project/pkg/x/y.go:12"))
	require.Equal(t, "b/c/d.go:1", shortCaller("/a/b/c/d.go:1"))
	require.Equal(t, "", shortCaller(""))
}

func TestTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core).Sugar())
	ctx := logctx.WithTraceID(context.Background(), "t-1")
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	require.Equal(t, 0, logs.Len())

	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	require.Equal(t, 1, logs.FilterMessage("gorm_trace").Len())
	require.Equal(t, "t-1", logs.All()[0].ContextMap()["trace_id"])

	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	require.Equal(t, 1, logs.FilterMessage("gorm_slow").Len())

	l.Trace(ctx, time.Now(), fc, nil)
	require.Equal(t, 0, logs.FilterMessage("gorm").Len())

	l.LogMode(gormlogger.Info).Trace(ctx, time.Now(), fc, nil)
	require.Equal(t, 1, logs.FilterMessage("gorm").Len())

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), fc, errors.New("boom"))
	require.Equal(t, 1, logs.FilterMessage("gorm_trace").Len())
}
