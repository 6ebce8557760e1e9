package cli

import "go.uber.org/zap"

// debugLogger wraps zap for verbose debug output. A no-op unless --verbose.
type debugLogger struct {
	sugared *zap.SugaredLogger
}

func newDebugLogger(globals *Globals) *debugLogger {
	if globals == nil || !globals.Verbose {
		return &debugLogger{}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	logger, _ := cfg.Build()
	return &debugLogger{sugared: logger.Sugar()}
}

func (l *debugLogger) Debug(format string, args ...interface{}) {
	if l.sugared == nil {
		return
	}
	l.sugared.Debugf(format, args...)
}

// Sugared exposes the underlying logger for packages that take a
// *zap.SugaredLogger; nil when verbose logging is off.
func (l *debugLogger) Sugared() *zap.SugaredLogger {
	return l.sugared
}

// SugaredLogger returns the shared verbose logger, or nil when quiet.
func (g *Globals) SugaredLogger() *zap.SugaredLogger {
	if g.logger == nil {
		return nil
	}
	return g.logger.Sugared()
}
