// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PlayerKind tags which namespace a player identifier belongs to.
type PlayerKind uint8

const (
	// KindUnknown marks an unresolved identifier.
	KindUnknown PlayerKind = iota
	// KindHuman is a chat member playing the daily word.
	KindHuman
	// KindCharacter is a simulated, non-human player owned by a chat.
	KindCharacter
)

// ErrUnknownPlayerKind is returned when parsing an unrecognised kind label.
var ErrUnknownPlayerKind = errors.New("unknown player kind")

// String returns the label used in keys and JSON payloads.
func (k PlayerKind) String() string {
	switch k {
	case KindHuman:
		return "human"
	case KindCharacter:
		return "character"
	default:
		return "unknown"
	}
}

// ParsePlayerKind parses "human" or "character" (case-insensitive).
func ParsePlayerKind(s string) (PlayerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human", "user":
		return KindHuman, nil
	case "character":
		return KindCharacter, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownPlayerKind, s)
	}
}

// PlayerID identifies a player in exactly one namespace.
type PlayerID struct {
	Kind PlayerKind
	ID   int64
}

// Human returns the identifier of a human player.
func Human(id int64) PlayerID { return PlayerID{Kind: KindHuman, ID: id} }

// CharacterID returns the identifier of a non-human character.
func CharacterID(id int64) PlayerID { return PlayerID{Kind: KindCharacter, ID: id} }

// Valid reports whether the identifier resolves to a known namespace and a
// non-zero id.
func (p PlayerID) Valid() bool {
	return (p.Kind == KindHuman || p.Kind == KindCharacter) && p.ID != 0
}

// Key is the aggregation key shared by both namespaces. Human 7 and
// character 7 produce different keys.
func (p PlayerID) Key() string {
	return p.Kind.String() + ":" + strconv.FormatInt(p.ID, 10)
}

// String implements fmt.Stringer.
func (p PlayerID) String() string { return p.Key() }
