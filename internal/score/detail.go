package score

import (
	"fmt"
	"strings"
)

// Detail is one musical dimension that can take part in a comparison.
type Detail uint8

const (
	// NotesAndRests compares note and rest identity.
	NotesAndRests Detail = iota
	// NoteStaffPosition compares where notes sit on the staff.
	NoteStaffPosition
	// Signatures compares key and time signatures.
	Signatures

	detailCount
)

var detailNames = [detailCount]string{
	NotesAndRests:     "NotesAndRests",
	NoteStaffPosition: "NoteStaffPosition",
	Signatures:        "Signatures",
}

func (d Detail) String() string {
	if d < detailCount {
		return detailNames[d]
	}
	return fmt.Sprintf("Detail(%d)", uint8(d))
}

// DetailLevel is a set of Details. The zero value is the empty set. Sets only
// grow through With and Union; nothing removes a Detail once enabled.
type DetailLevel struct {
	mask uint8
}

// Level builds a DetailLevel from the given details.
func Level(details ...Detail) DetailLevel {
	return DetailLevel{}.With(details...)
}

// With returns the union of l and the given details. Unknown details are ignored.
func (l DetailLevel) With(details ...Detail) DetailLevel {
	for _, d := range details {
		if d < detailCount {
			l.mask |= 1 << d
		}
	}
	return l
}

// Union returns the set of details enabled in either level.
func (l DetailLevel) Union(other DetailLevel) DetailLevel {
	return DetailLevel{mask: l.mask | other.mask}
}

// Has reports whether d is enabled.
func (l DetailLevel) Has(d Detail) bool {
	return d < detailCount && l.mask&(1<<d) != 0
}

// Contains reports whether every detail of other is enabled in l.
func (l DetailLevel) Contains(other DetailLevel) bool {
	return l.mask&other.mask == other.mask
}

// IsZero reports whether no detail is enabled.
func (l DetailLevel) IsZero() bool {
	return l.mask == 0
}

// Details lists the enabled details in declaration order.
func (l DetailLevel) Details() []Detail {
	out := make([]Detail, 0, detailCount)
	for d := Detail(0); d < detailCount; d++ {
		if l.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// String renders the set as "NoteStaffPosition|Signatures", or "None".
func (l DetailLevel) String() string {
	details := l.Details()
	if len(details) == 0 {
		return "None"
	}
	names := make([]string, len(details))
	for i, d := range details {
		names[i] = d.String()
	}
	return strings.Join(names, "|")
}

// ParseDetailLevel parses the String form. Names are case-insensitive and may
// be separated by '|' or ','.
func ParseDetailLevel(value string) (DetailLevel, error) {
	var level DetailLevel
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") {
		return level, nil
	}
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == '|' || r == ',' })
	for _, raw := range fields {
		name := strings.TrimSpace(raw)
		found := false
		for d := Detail(0); d < detailCount; d++ {
			if strings.EqualFold(name, detailNames[d]) {
				level = level.With(d)
				found = true
				break
			}
		}
		if !found {
			return DetailLevel{}, fmt.Errorf("unknown detail %q", name)
		}
	}
	return level, nil
}

// MarshalText implements encoding.TextMarshaler.
func (l DetailLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *DetailLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseDetailLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
