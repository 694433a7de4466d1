// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// EventID is a server-assigned Matrix event identifier such as
// "$Abc123xyz". Modern room versions use "$<base64 hash>"; very old
// ones append ":server". Statusdesk never looks inside — an event ID
// is accepted when it carries the '$' sigil and at least one
// character after it.
//
// The zero value means "unset"; check with IsZero.
type EventID struct {
	id string
}

// ParseEventID checks the sigil and wraps the raw string.
func ParseEventID(raw string) (EventID, error) {
	if raw == "" {
		return EventID{}, fmt.Errorf("event ID is empty")
	}
	if raw[0] != '$' {
		return EventID{}, fmt.Errorf("event ID %q must start with '$'", raw)
	}
	if raw == "$" {
		return EventID{}, fmt.Errorf("event ID %q has nothing after the sigil", raw)
	}
	return EventID{id: raw}, nil
}

// MustParseEventID panics when the input does not parse. For tests
// and package-level literals only.
func MustParseEventID(raw string) EventID {
	eventID, err := ParseEventID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseEventID(%q): %v", raw, err))
	}
	return eventID
}

// String returns the event ID as received from the server.
func (e EventID) String() string { return e.id }

// IsZero reports whether the EventID is unset.
func (e EventID) IsZero() bool { return e.id == "" }

// MarshalText serializes the event ID for JSON and CBOR.
func (e EventID) MarshalText() ([]byte, error) {
	return []byte(e.id), nil
}

// UnmarshalText parses during decode, so a struct field of this type
// never holds a malformed ID. Empty input leaves the zero value.
func (e *EventID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*e = EventID{}
		return nil
	}
	eventID, err := ParseEventID(string(text))
	if err != nil {
		return err
	}
	*e = eventID
	return nil
}
