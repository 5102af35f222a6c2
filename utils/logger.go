package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger глобальный логгер сервиса. До вызова InitLogger ничего не пишет.
var Logger = zap.NewNop()

// InitLogger init logger
func InitLogger() {
	config := zap.NewProductionConfig()

	// Set output path
	config.OutputPaths = []string{"stdout"}

	// Set time format
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Set log level depending on environment
	if IsProduction() {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		config.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	} else {
		// For local development
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.Development = true
		config.Encoding = "console" // More readable format for development
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	logger, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		panic(err)
	}
	Logger = logger
}

// IsProduction reports whether ENV or GO_ENV is set to production
func IsProduction() bool {
	return os.Getenv("ENV") == "production" || os.Getenv("GO_ENV") == "production"
}
