package logger

import (
	"go.uber.org/zap"
)

// NOOPLogger discards everything. It is the default for components that
// are not handed a logger.
var NOOPLogger = zap.NewNop().Sugar()

// NewLogger returns a JSON production logger, or a human readable
// development logger when appEnv is "local".
func NewLogger(appEnv string) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if appEnv == "local" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar().With("env", appEnv), nil
}
