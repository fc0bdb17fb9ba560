package isochrone

import "fmt"

// ModeCatalog is the travel mode list fetched once per run.
type ModeCatalog struct {
	modes []TravelMode
}

// NewModeCatalog creates a catalog over modes.
func NewModeCatalog(modes []TravelMode) *ModeCatalog {
	cp := make([]TravelMode, len(modes))
	copy(cp, modes)
	return &ModeCatalog{modes: cp}
}

// Names returns the mode names in catalog order, for a choice parameter.
func (c *ModeCatalog) Names() []string {
	names := make([]string, len(c.modes))
	for i, m := range c.modes {
		names[i] = m.Name
	}
	return names
}

// Len returns the number of modes.
func (c *ModeCatalog) Len() int {
	return len(c.modes)
}

// ResolveMode returns the mode at index.
func (c *ModeCatalog) ResolveMode(index int) (TravelMode, error) {
	if index < 0 || index >= len(c.modes) {
		return TravelMode{}, fmt.Errorf("%w: index %d, catalog has %d modes", ErrOutOfRange, index, len(c.modes))
	}
	return c.modes[index], nil
}

// Modes returns a copy of the catalog.
func (c *ModeCatalog) Modes() []TravelMode {
	cp := make([]TravelMode, len(c.modes))
	copy(cp, c.modes)
	return cp
}
