// Package uri defines the structured addresses used to route messages:
// an authority hosts versioned entities, and each entity exposes
// numbered resources.
package uri

import (
	"errors"
	"fmt"
)

// ErrInvalidURI is returned when a UUri is structurally malformed.
var ErrInvalidURI = errors.New("invalid uri")

// UUri addresses one resource of a versioned entity on an authority.
// ResourceID zero addresses the entity itself. UUri is comparable and
// serves as the listener registry key, so any two values naming the same
// logical topic compare equal.
type UUri struct {
	Authority  string
	EntityID   uint32
	Version    uint8
	ResourceID uint32
}

// Validate reports whether the UUri is well formed enough to act as a
// topic or destination.
func (u UUri) Validate() error {
	if u.Authority == "" {
		return fmt.Errorf("%w: empty authority", ErrInvalidURI)
	}
	return nil
}

// String renders the canonical form //authority/ENTITY/VERSION/RESOURCE
// with uppercase hex fields. Networked backends use it as the substrate
// topic key, so it must be stable across processes.
func (u UUri) String() string {
	return fmt.Sprintf("//%s/%X/%X/%X", u.Authority, u.EntityID, u.Version, u.ResourceID)
}
