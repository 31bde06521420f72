// Package logging provides the process-wide zap logger, handed out as
// named category loggers (trend, oracle, server, store) so log lines
// can be filtered per subsystem. Before Init the package hands out
// no-op loggers, which keeps library use and tests quiet.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Categories used across qiankun.
const (
	CategoryTrend  = "trend"
	CategoryOracle = "oracle"
	CategoryServer = "server"
	CategoryStore  = "store"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the process logger. Verbose lowers the level to debug.
// Call Sync on the returned logger before exit.
func Init(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	mu.Lock()
	base = logger
	mu.Unlock()
	return logger, nil
}

// SetLogger replaces the process logger; tests use this with observers.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		base = zap.NewNop()
		return
	}
	base = l
}

// For returns the named logger for a category.
func For(category string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(category)
}
