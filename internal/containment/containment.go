// Package containment owns the single system-wide operational risk tier.
// The tier moves one level at a time, in either direction. A single call
// can never swing the system between permissive and locked down — raising
// or lowering containment across several levels takes several deliberate
// calls, each of them audited.
package containment

import (
	"fmt"
	"sync"

	"github.com/ppiankov/proofgate/internal/model"
)

// Controller holds the current containment level.
type Controller struct {
	mu    sync.RWMutex
	level int
}

// New creates a controller at the given initial level.
func New(initial int) (*Controller, error) {
	if initial < model.MinLevel || initial > model.MaxLevel {
		return nil, fmt.Errorf("%w: initial containment level %d outside [%d,%d]",
			model.ErrInvalidParameters, initial, model.MinLevel, model.MaxLevel)
	}
	return &Controller{level: initial}, nil
}

// Level returns the current containment level.
func (c *Controller) Level() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// Set moves the level to newLevel, which must be exactly one step from the
// current level. Returns the previous level on success.
func (c *Controller) Set(newLevel int) (old int, err error) {
	if newLevel < model.MinLevel || newLevel > model.MaxLevel {
		return 0, fmt.Errorf("%w: containment level %d outside [%d,%d]",
			model.ErrInvalidParameters, newLevel, model.MinLevel, model.MaxLevel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if newLevel != c.level+1 && newLevel != c.level-1 {
		return 0, fmt.Errorf("%w: current %d, requested %d", model.ErrInvalidStep, c.level, newLevel)
	}

	old = c.level
	c.level = newLevel
	return old, nil
}
