package catalog

import "strings"

// Level is the qualitative requirement a career places on a Big Five trait.
type Level int

const (
	// LevelNeutral covers "mid" and every unrecognised marker. It carries no
	// directional signal but still counts when averaging requirements.
	LevelNeutral Level = iota
	LevelHigh
	LevelLow
)

// ParseLevel maps a requirement marker to a Level. It never fails.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return LevelHigh
	case "low":
		return LevelLow
	default:
		return LevelNeutral
	}
}

func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "high"
	case LevelLow:
		return "low"
	default:
		return "neutral"
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	*l = ParseLevel(string(text))
	return nil
}
