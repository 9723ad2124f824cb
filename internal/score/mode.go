package score

import (
	"fmt"
	"strings"

	"omrdiff/internal/services"
)

// Mode selects between comparing one named pair and comparing a corpus.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
)

// ParseMode validates a CLI action selector.
func ParseMode(action string) (Mode, error) {
	switch Mode(strings.TrimSpace(action)) {
	case ModeSingle:
		return ModeSingle, nil
	case ModeMultiple:
		return ModeMultiple, nil
	default:
		return "", services.Wrap(services.ErrUnknownAction, "cli", "action", fmt.Sprintf("unknown action %q (want single or multiple)", action), nil)
	}
}

// DetailLevel returns the detail level a mode compares at. Single comparisons
// are meant for human review and look at staff positions and signatures;
// corpus runs feed training metrics and look at note and rest identity.
func (m Mode) DetailLevel() DetailLevel {
	switch m {
	case ModeSingle:
		return Level(NoteStaffPosition, Signatures)
	case ModeMultiple:
		return Level(NotesAndRests)
	default:
		return DetailLevel{}
	}
}
