// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomAlias is a validated Matrix room alias such as
// "#status:example.org".
//
// An alias is the human-readable name of a room. Configuration may
// point at the status room by alias; the daemon resolves it to a
// RoomID once at startup and works with the ID from then on.
//
// The zero value means "unset"; check with IsZero.
type RoomAlias struct {
	alias string
}

// ParseRoomAlias checks the shape of a raw room alias string and
// wraps it.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	if _, _, err := splitSigil(raw, '#', "room alias"); err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{alias: raw}, nil
}

// MustParseRoomAlias panics when the input does not parse. For tests
// and package-level literals only.
func MustParseRoomAlias(raw string) RoomAlias {
	alias, err := ParseRoomAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomAlias(%q): %v", raw, err))
	}
	return alias
}

// String returns the canonical "#localpart:server" form.
func (a RoomAlias) String() string { return a.alias }

// IsZero reports whether the RoomAlias is unset.
func (a RoomAlias) IsZero() bool { return a.alias == "" }

// MarshalText serializes the canonical form for JSON and CBOR.
func (a RoomAlias) MarshalText() ([]byte, error) {
	return []byte(a.alias), nil
}

// UnmarshalText parses during decode, so a struct field of this type
// never holds a malformed alias. Empty input leaves the zero value.
func (a *RoomAlias) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = RoomAlias{}
		return nil
	}
	alias, err := ParseRoomAlias(string(text))
	if err != nil {
		return err
	}
	*a = alias
	return nil
}
