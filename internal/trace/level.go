package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff     Level = iota // no tracing
	LevelCommand              // CLI command boundaries
	LevelStore                // + store operations
	LevelRecord               // + per-record codec work
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelCommand:
		return "command"
	case LevelStore:
		return "store"
	case LevelRecord:
		return "record"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff, nil
	case "command":
		return LevelCommand, nil
	case "store":
		return LevelStore, nil
	case "record", "debug":
		return LevelRecord, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|command|store|record)", s)
	}
}

// ShouldEmit returns true if events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelCommand:
		return scope <= ScopeCommand
	case LevelStore:
		return scope <= ScopeStore
	case LevelRecord:
		return true
	default:
		return false
	}
}
