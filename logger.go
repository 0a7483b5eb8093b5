package jwtverify

import (
	"log"

	"github.com/sirupsen/logrus"
)

// Logger receives the verifier's diagnostics: successful verifications at
// Debug and JWKS fetch failures at Warn. Rejected tokens are logged at Warn
// by the middleware, through the logger given to WithMiddlewareLogger. It also
// satisfies the jwks package's logging interface, so one logger covers the
// verifier and its cache.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// DefaultLogger writes through the standard library log package, with the
// level and a package prefix in front of each line.
type DefaultLogger struct{}

func (l *DefaultLogger) Debugf(format string, args ...interface{}) {
	log.Printf("jwtverify: DEBUG: "+format, args...)
}
func (l *DefaultLogger) Infof(format string, args ...interface{}) {
	log.Printf("jwtverify: INFO: "+format, args...)
}
func (l *DefaultLogger) Warnf(format string, args ...interface{}) {
	log.Printf("jwtverify: WARN: "+format, args...)
}
func (l *DefaultLogger) Errorf(format string, args ...interface{}) {
	log.Printf("jwtverify: ERROR: "+format, args...)
}

// NewLogrusLogger adapts a logrus.FieldLogger. Pass an Entry carrying your
// service's fields to tag every verifier log line with them.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (l *logrusLoggerAdapter) Debugf(format string, args ...interface{}) { l.l.Debugf(format, args...) }
func (l *logrusLoggerAdapter) Infof(format string, args ...interface{})  { l.l.Infof(format, args...) }
func (l *logrusLoggerAdapter) Warnf(format string, args ...interface{})  { l.l.Warnf(format, args...) }
func (l *logrusLoggerAdapter) Errorf(format string, args ...interface{}) { l.l.Errorf(format, args...) }
