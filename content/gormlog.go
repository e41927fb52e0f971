package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQuery is the duration above which a statement is logged as slow.
const slowQuery = 500 * time.Millisecond

// gormLog routes gorm's logging through the structured process logger.
// Statements are logged without their bound values.
type gormLog struct {
	logger Logger
	level  gormlogger.LogLevel
}

func newGormLog(l Logger) gormlogger.Interface {
	if l == nil {
		return gormlogger.Discard
	}
	return &gormLog{logger: l, level: gormlogger.Warn}
}

func (g *gormLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLog) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.logger.Infoj(log.JSON{"event": "db.info", "message": fmt.Sprintf(msg, args...)})
	}
}

func (g *gormLog) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.logger.Warnj(log.JSON{"event": "db.warn", "message": fmt.Sprintf(msg, args...)})
	}
}

func (g *gormLog) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.logger.Errorj(log.JSON{"event": "db.error", "message": fmt.Sprintf(msg, args...)})
	}
}

// Trace logs failed and slow statements. Not-found lookups are ordinary
// results and stay quiet.
func (g *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		_, rows := fc()
		g.logger.Warnj(log.JSON{
			"event":   "db.query_failed",
			"error":   err.Error(),
			"rows":    rows,
			"elapsed": elapsed.String(),
		})
	case elapsed > slowQuery && g.level >= gormlogger.Warn:
		_, rows := fc()
		g.logger.Warnj(log.JSON{
			"event":   "db.slow_query",
			"rows":    rows,
			"elapsed": elapsed.String(),
		})
	}
}
