package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chainreaction/client/internal/logger"
)

// CleanupFunc represents a cleanup function
type CleanupFunc func() error

type namedCleanup struct {
	name string
	fn   CleanupFunc
}

// ResourceManager closes resources in reverse registration order on
// shutdown.
type ResourceManager struct {
	mu       sync.Mutex
	cleanups []namedCleanup
	done     bool
	log      *logger.Logger
}

// NewResourceManager creates a new resource manager
func NewResourceManager(log *logger.Logger) *ResourceManager {
	if log == nil {
		log = logger.Default()
	}
	return &ResourceManager{log: log}
}

// Add registers fn under name. Later registrations run first.
func (rm *ResourceManager) Add(name string, fn CleanupFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.cleanups = append(rm.cleanups, namedCleanup{name: name, fn: fn})
}

// Cleanup runs every registered function once and joins their errors.
// Calls after the first return nil.
func (rm *ResourceManager) Cleanup() error {
	rm.mu.Lock()
	if rm.done {
		rm.mu.Unlock()
		return nil
	}
	rm.done = true
	cleanups := rm.cleanups
	rm.cleanups = nil
	rm.mu.Unlock()

	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		c := cleanups[i]
		if err := c.fn(); err != nil {
			rm.log.Error("Cleanup error", map[string]interface{}{"resource": c.name, "error": err.Error()})
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		rm.log.Debug("Cleaned up", map[string]interface{}{"resource": c.name})
	}
	return errors.Join(errs...)
}

// WaitForShutdown blocks until SIGINT, SIGTERM or ctx is done, then runs
// the cleanups.
func (rm *ResourceManager) WaitForShutdown(ctx context.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		rm.log.Info("Shutdown signal received, cleaning up...", map[string]interface{}{"signal": sig.String()})
	case <-ctx.Done():
		rm.log.Info("Context cancelled, cleaning up...")
	}
	return rm.Cleanup()
}
