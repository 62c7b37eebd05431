// Package obslog is the structured-logging collaborator passed into
// AnalysisController, replacing the teacher's bare log.Fatal calls
// (utils/dates.go) with a non-fatal, leveled logger: a library must return
// errors to its caller, never exit the process.
package obslog

import (
	"go.uber.org/zap"
)

// Logger wraps a zap.SugaredLogger with the small surface the core needs.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a production JSON logger.
func New() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar()}, nil
}

// NewNop returns a logger that discards everything, for tests and
// callers that don't want output.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) Debugw(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

// Sync flushes buffered log entries; call before process exit.
func (l *Logger) Sync() error {
	return l.s.Sync()
}

// With returns a child logger annotated with the given key-value pairs,
// mirroring the well_id/curve_id/calculation_id context the original
// source's module logger attaches per operation.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{s: l.s.With(kv...)}
}
