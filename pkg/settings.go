package pkg

import (
	"context"
	"errors"
)

var (
	ErrSettingsNotFound = errors.New("settings not found")
)

// Saved is the persisted caller configuration: the profile to acquire and
// whether provider calls go through the relay.
type Saved struct {
	Profile  Profile `json:"profile"`
	UseRelay bool    `json:"use_relay"`
}

type Settings interface {
	Load(ctx context.Context) (*Saved, error)
	Save(ctx context.Context, saved *Saved) error
}
