package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	CoreLogger     *zap.SugaredLogger
	PipelineLogger *zap.SugaredLogger
	GinLogger      *zap.SugaredLogger

	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() {
	config := zap.NewDevelopmentConfig()
	config.Level = level
	log, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel))
	if err != nil {
		log = zap.NewNop()
	}

	sugar := log.Sugar()
	CoreLogger = log.WithOptions(zap.AddCallerSkip(1)).Sugar()
	PipelineLogger = sugar.Named("pipeline")
	GinLogger = sugar.Named("gin")
}

// SetLevel updates the level of every logger, e.g. "debug" or "warn".
func SetLevel(text string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(text)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", text, err)
	}

	level.SetLevel(l)
	return nil
}

// SetCoreLogger replaces the loggers, mostly for tests that want zaptest or nop output.
func SetCoreLogger(log *zap.SugaredLogger) {
	CoreLogger = log.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar()
	PipelineLogger = log.Named("pipeline")
	GinLogger = log.Named("gin")
}

func With(args ...any) *zap.SugaredLogger {
	return PipelineLogger.With(args...)
}

func Debugf(template string, args ...any) {
	CoreLogger.Debugf(template, args...)
}

func Infof(template string, args ...any) {
	CoreLogger.Infof(template, args...)
}

func Warnf(template string, args ...any) {
	CoreLogger.Warnf(template, args...)
}

func Errorf(template string, args ...any) {
	CoreLogger.Errorf(template, args...)
}

func Sync() {
	_ = CoreLogger.Sync()
}
