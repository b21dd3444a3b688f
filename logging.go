package ring

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the event sink the engine writes to. Tests substitute a
// collecting fake via WithLogger; production nodes get NewFileLogger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// logrusLogger adapts a *logrus.Logger to Logger.
type logrusLogger struct {
	*logrus.Logger
}

// NewFileLogger opens (creating if necessary) <nickname>.log and returns a
// Logger that appends line-oriented, HH:MM:SS-timestamped entries to it.
func NewFileLogger(nickname string) (Logger, io.Closer, error) {
	f, err := os.OpenFile(nickname+".log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	l := logrus.New()
	l.SetOutput(f)
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		DisableColors:   true,
	})
	l.SetLevel(logrus.InfoLevel)

	return &logrusLogger{l}, f, nil
}

// discardLogger drops every event. NewNode never falls back to it; it is
// supplied explicitly through WithLogger, as the tests do.
type discardLogger struct{}

func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Warnf(string, ...interface{})  {}
func (discardLogger) Errorf(string, ...interface{}) {}
