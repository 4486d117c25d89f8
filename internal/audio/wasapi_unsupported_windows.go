//go:build windows && !(amd64 || arm64)

package audio

import (
	"errors"
	"fmt"
)

// NewEnumerator is unavailable on this architecture: the COM callback vtables
// assume the x64/arm64 calling convention.
func NewEnumerator() (Enumerator, error) {
	return nil, fmt.Errorf("audio: Core Audio backend requires amd64 or arm64: %w", errors.ErrUnsupported)
}
