package editflow

// Logger is the consumer-side logging contract of this package. The root
// package's default logger satisfies it; any structured logger with printf
// methods does too.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func loggerFor(logger Logger) Logger {
	if logger != nil {
		return logger
	}
	return noopLogger{}
}

// logError suppresses user cancellations; everything else is logged with the
// failing operation name.
func logError(logger Logger, op string, err error) {
	if err == nil || IsCancelled(err) {
		return
	}
	logger.Error("%s: %v", op, err)
}
