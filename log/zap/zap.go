// Package zap adapts a *zap.Logger to fincache.Logger.
package zap

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/fincache"
)

var _ fincache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "fincache". A nil l yields a no-op logger.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("fincache")}
}

func (z Logger) Debug(msg string, f fincache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f fincache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f fincache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f fincache.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order; error values use zap's error encoding.
func zf(f fincache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		case fmt.Stringer:
			out = append(out, zap.Stringer(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
