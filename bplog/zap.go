package bplog

import "go.uber.org/zap"

// Zap wraps a zap.Logger to implement Logger.
type Zap struct {
	logger *zap.Logger
}

// NewZap creates a Logger from a zap.Logger.
func NewZap(logger *zap.Logger) Logger {
	return &Zap{logger: logger}
}

func (z *Zap) Info(msg string, kv ...any) {
	z.logger.Sugar().Infow(msg, kv...)
}

func (z *Zap) Warn(msg string, kv ...any) {
	z.logger.Sugar().Warnw(msg, kv...)
}

func (z *Zap) Error(msg string, kv ...any) {
	z.logger.Sugar().Errorw(msg, kv...)
}
