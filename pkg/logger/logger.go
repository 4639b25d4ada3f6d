package logger

import (
	"go.uber.org/zap"
)

// NewLogger builds the process-wide zap logger. Set APP_MODE=dev for the
// human-readable development encoder.
func NewLogger(mode string) *zap.Logger {
	var l *zap.Logger
	var err error
	if mode == "dev" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l
}
