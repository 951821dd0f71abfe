package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rentease/rentease-backend/pkg/logger"
)

// gormLogger routes GORM output through the service logger. Only failed statements
// and statements slower than the threshold are reported; record-not-found is expected
// control flow in the repositories and stays quiet.
type gormLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newGormLogger(logg *logger.Logger, slowThreshold time.Duration) gormlogger.Interface {
	return &gormLogger{logg: logg, slowThreshold: slowThreshold, level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logg.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logg.Error(l.fields(ctx, sql, rows, elapsed), "db.query.failed", err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logg.Warn(l.fields(ctx, sql, rows, elapsed), "db.query.slow")
	}
}

func (l *gormLogger) fields(ctx context.Context, sql string, rows int64, elapsed time.Duration) context.Context {
	return l.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
}
