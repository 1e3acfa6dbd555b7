package extvideo

import (
	"fmt"

	"github.com/google/uuid"
)

// trackNameSymbols are the non-alphanumeric characters allowed in a track
// name (SDP msid token).
const trackNameSymbols = "!$%'*+-.^_`{|}~&"

var trackNameAllowed = func() (t [256]bool) {
	for c := '0'; c <= '9'; c++ {
		t[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		t[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = true
	}
	for i := 0; i < len(trackNameSymbols); i++ {
		t[trackNameSymbols[i]] = true
	}
	return t
}()

// ValidateTrackName checks name against the track token grammar.
func ValidateTrackName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for i := 0; i < len(name); i++ {
		if !trackNameAllowed[name[i]] {
			return fmt.Errorf("%w: %q has invalid character %q at %d", ErrInvalidName, name, name[i], i)
		}
	}
	return nil
}

// NewTrackName returns a generated unique name that satisfies ValidateTrackName.
func NewTrackName() string {
	return uuid.NewString()
}

// normalizeTrackName generates a name for empty input and validates the rest.
func normalizeTrackName(name string) (string, error) {
	if name == "" {
		return NewTrackName(), nil
	}
	if err := ValidateTrackName(name); err != nil {
		return "", err
	}
	return name, nil
}
