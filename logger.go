package fincache

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around logging stack
// (see log/zap, log/logrus, log/slog). If Logger is nil in Options, logging
// is disabled.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// logFailure reports a classified failure at the level its kind deserves.
func logFailure(l Logger, e *Error) {
	f := Fields{"op": e.Op, "kind": e.Kind.String()}
	if e.Key != "" {
		f["key"] = string(e.Key)
	}
	if e.Status != 0 {
		f["status"] = e.Status
	}
	if e.Err != nil {
		f["err"] = e.Err
	}
	switch e.Kind {
	case KindAuthInvalid:
		l.Warn("session invalid; clearing credential and cache", f)
	case KindValidation:
		l.Debug("request rejected", f)
	default:
		l.Warn("request failed", f)
	}
}
