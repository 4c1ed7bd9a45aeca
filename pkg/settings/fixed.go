package settings

import (
	"context"
	"sync"

	"github.com/omimic12/proxy6-automator/pkg"
)

// Fixed serves the settings it was built with, taken from flags and the
// environment. Saves only live until the process exits.
type Fixed struct {
	mu    sync.RWMutex
	saved pkg.Saved
}

func NewFixed(saved pkg.Saved) *Fixed {
	return &Fixed{saved: saved}
}

func (f *Fixed) Load(_ context.Context) (*pkg.Saved, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	saved := f.saved
	return &saved, nil
}

func (f *Fixed) Save(_ context.Context, saved *pkg.Saved) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved = *saved
	return nil
}
