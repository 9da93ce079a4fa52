package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSetting is returned when a setting required by the selected
	// backend is empty.
	ErrMissingSetting = errors.New("missing required setting")

	// ErrUnknownBackend is returned for an unrecognised backend type.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrInvalidSetting is returned for out-of-range numeric settings.
	ErrInvalidSetting = errors.New("invalid setting")
)

func missing(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingSetting, name)
}

func unknown(section, kind string) error {
	return fmt.Errorf("%w: %s type %q", ErrUnknownBackend, section, kind)
}
