package report

import (
	"encoding/json"
	"fmt"
)

// Mode selects which dataset scope is displayed.
type Mode string

const (
	// ModeFiltered is the period-scoped dataset embedded in the page.
	ModeFiltered Mode = "filtered"
	// ModeFull is the unscoped dataset fetched on demand.
	ModeFull Mode = "full"
)

// AllModes returns both modes, filtered first.
func AllModes() []Mode {
	return []Mode{ModeFiltered, ModeFull}
}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidMode, s, ModeFiltered, ModeFull)
	}
	return m, nil
}

// IsValid returns true for the two known modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeFiltered, ModeFull:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == ModeFull {
		return ModeFiltered
	}
	return ModeFull
}

// IgnoresPeriod reports whether queries built in this mode drop the date range.
func (m Mode) IgnoresPeriod() bool {
	return m == ModeFull
}

// Label is the human readable caption shown next to the toggle.
func (m Mode) Label() string {
	if m == ModeFull {
		return "All CLM data"
	}
	return "Selected period"
}

// UnmarshalJSON rejects unknown modes.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
