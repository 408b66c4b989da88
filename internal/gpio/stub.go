//go:build !linux

package gpio

import "errors"

// RealSource is not available on non-Linux platforms.
type RealSource struct{}

// NewRealSource returns an error on non-Linux platforms.
func NewRealSource(chip string, offset int) (*RealSource, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Edges returns nil on non-Linux platforms.
func (s *RealSource) Edges() <-chan Edge {
	return nil
}

// Dropped is always zero on non-Linux platforms.
func (s *RealSource) Dropped() int {
	return 0
}

// Close is not implemented on non-Linux platforms.
func (s *RealSource) Close() error {
	return nil
}
