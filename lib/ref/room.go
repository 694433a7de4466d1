// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomID is a validated Matrix room ID such as "!abc123:example.org".
//
// Room IDs are opaque handles the homeserver assigns; statusdesk only
// ever receives them, from alias resolution, the join response, and
// /sync. The local part carries no meaning, so unlike UserID there
// are no accessors for the pieces.
//
// The zero value means "unset"; check with IsZero.
type RoomID struct {
	id string
}

// ParseRoomID checks the shape of a raw room ID string and wraps it.
func ParseRoomID(raw string) (RoomID, error) {
	if _, _, err := splitSigil(raw, '!', "room ID"); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID panics when the input does not parse. For tests and
// package-level literals only.
func MustParseRoomID(raw string) RoomID {
	roomID, err := ParseRoomID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomID(%q): %v", raw, err))
	}
	return roomID
}

// String returns the canonical "!opaque:server" form.
func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is unset.
func (r RoomID) IsZero() bool { return r.id == "" }

// MarshalText serializes the canonical form for JSON and CBOR. It
// also lets RoomID serve as a JSON map key, which the /sync response
// relies on.
func (r RoomID) MarshalText() ([]byte, error) {
	return []byte(r.id), nil
}

// UnmarshalText parses during decode, so a struct field of this type
// never holds a malformed ID. Empty input leaves the zero value.
func (r *RoomID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = RoomID{}
		return nil
	}
	roomID, err := ParseRoomID(string(text))
	if err != nil {
		return err
	}
	*r = roomID
	return nil
}
