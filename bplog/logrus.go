package bplog

import "github.com/sirupsen/logrus"

// Logrus wraps a logrus.Logger to implement Logger.
type Logrus struct {
	logger *logrus.Logger
}

// NewLogrus creates a Logger from a logrus.Logger.
func NewLogrus(logger *logrus.Logger) Logger {
	return &Logrus{logger: logger}
}

func (l *Logrus) Info(msg string, kv ...any) {
	l.logger.WithFields(argsToFields(kv)).Info(msg)
}

func (l *Logrus) Warn(msg string, kv ...any) {
	l.logger.WithFields(argsToFields(kv)).Warn(msg)
}

func (l *Logrus) Error(msg string, kv ...any) {
	l.logger.WithFields(argsToFields(kv)).Error(msg)
}

func argsToFields(kv []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i < len(kv)-1; i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return fields
}
