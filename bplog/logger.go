// Package bplog provides adapters for popular logger libraries to work
// with the storage engine's Logger interface.
//
// The adapters let callers plug in their existing logger without
// writing boilerplate. The standard library's *slog.Logger already
// satisfies Logger directly.
//
// Example with zap:
//
//	zapLogger, _ := zap.NewProduction()
//	pool := buffer.NewPool(size, 0, 1, mgr, buffer.WithLogger(bplog.NewZap(zapLogger)))
//
// Grounded on alexhholmes-fredb/logger's adapter package (same
// interface shape, same doc-comment pattern).
package bplog

// Logger is the minimal structured-logging surface the buffer pool and
// parallel buffer pool use for eviction, flush, and I/O-failure events.
// *slog.Logger implements this directly.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// nop discards every call; used as the default when no Logger is
// configured.
type nop struct{}

func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }
