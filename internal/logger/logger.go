package logger

import (
	"go.uber.org/zap"
)

// New returns a JSON production logger, or a console logger with debug level when env is "dev".
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Must is New for process entry points that cannot continue without a logger.
func Must(env string) *zap.Logger {
	log, err := New(env)
	if err != nil {
		panic("logger: " + err.Error())
	}
	return log
}
