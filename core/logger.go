package core

// Logger is implemented by services/logger.
// expected args: error, Fields
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Fields carries extra data for a log entry.
type Fields map[string]interface{}
