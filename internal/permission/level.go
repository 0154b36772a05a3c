package permission

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Level is the access grade held for a single permission. LevelNone means
// the permission was evaluated and no access applies.
type Level uint8

const (
	LevelNone Level = iota
	LevelView
	LevelEdit
	LevelFull
)

func ParseLevel(s string) (Level, error) {
	switch s {
	case "view":
		return LevelView, nil
	case "edit":
		return LevelEdit, nil
	case "full":
		return LevelFull, nil
	case "", "none", "null":
		return LevelNone, nil
	}
	return LevelNone, fmt.Errorf("unknown permission level %q", s)
}

func (l Level) String() string {
	switch l {
	case LevelView:
		return "view"
	case LevelEdit:
		return "edit"
	case LevelFull:
		return "full"
	case LevelNone:
		return "none"
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

func (l Level) Valid() bool {
	return l <= LevelFull
}

// Granted reports whether any access applies.
func (l Level) Granted() bool {
	return l != LevelNone
}

// AtLeast orders levels as view < edit < full.
func (l Level) AtLeast(min Level) bool {
	return l >= min
}

func (l Level) MarshalJSON() ([]byte, error) {
	if l == LevelNone {
		return []byte("null"), nil
	}
	if !l.Valid() {
		return nil, fmt.Errorf("marshal level: invalid value %d", uint8(l))
	}
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*l = LevelNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal level: %w", err)
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Levels maps every catalog permission id to a level. A complete Levels
// carries an entry for each id, using LevelNone for no access.
type Levels map[string]Level

func (ls Levels) Clone() Levels {
	out := make(Levels, len(ls))
	for id, l := range ls {
		out[id] = l
	}
	return out
}

// Granted returns the ids with a level other than LevelNone, in the given order.
func (ls Levels) Granted(order []string) []string {
	ids := make([]string, 0, len(ls))
	for _, id := range order {
		if ls[id].Granted() {
			ids = append(ids, id)
		}
	}
	return ids
}
