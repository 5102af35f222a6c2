package database

import (
	"context"
	"sort"

	"library/utils"

	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewPGXTracer пишет запросы pgx в общий zap логгер
func NewPGXTracer() *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger: tracelog.LoggerFunc(func(ctx context.Context, l tracelog.LogLevel, msg string, data map[string]any) {
			lvl := pgxLevel(l)
			if !utils.Logger.Core().Enabled(lvl) {
				return
			}

			fields := make([]zap.Field, 0, len(data))
			for k, v := range data {
				switch k {
				case "args", "pid":
				default:
					fields = append(fields, zap.Any(k, v))
				}
			}
			sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })

			if ce := utils.Logger.Check(lvl, msg); ce != nil {
				ce.Write(fields...)
			}
		}),
		LogLevel: tracelog.LogLevelDebug,
	}
}

func pgxLevel(l tracelog.LogLevel) zapcore.Level {
	switch l {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug, tracelog.LogLevelInfo:
		return zapcore.DebugLevel
	case tracelog.LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
