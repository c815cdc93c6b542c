package logger

import (
	"log"
	"maternity-service/internal/app/config"
	"maternity-service/internal/pkg/constvars"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds the JSON logger shared by the payment workflows.
// Production writes to the configured files; every other environment logs
// to the console. Sampling stays off so no settlement line is dropped.
func NewZapLogger(driverConfig *config.DriverConfig, internalConfig *config.InternalConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(driverConfig.Logger.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	production := internalConfig.App.Env == constvars.AppEnvProduction
	outputPaths := []string{"stdout"}
	errorOutputPaths := []string{"stderr"}
	if production {
		outputPaths = []string{driverConfig.Logger.OutputFileName}
		errorOutputPaths = append(errorOutputPaths, driverConfig.Logger.OutputErrorFileName)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: internalConfig.App.Env == constvars.AppEnvDevelopment,
		InitialFields: map[string]interface{}{
			"service": "maternity-service",
			"version": internalConfig.App.Version,
			"env":     internalConfig.App.Env,
		},
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputPaths,
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Cannot build payment service logger (level %q, env %q): %v", driverConfig.Logger.Level, internalConfig.App.Env, err)
	}
	return zapLogger
}
