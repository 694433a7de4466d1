// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// UserID is a validated Matrix user ID such as "@ops:example.org".
//
// User IDs name the operators in the allow-list and the senders of
// room events. Validation here is purely structural ('@' sigil,
// localpart, ':server'); whether a particular user may edit anything
// is an authorization question answered elsewhere.
//
// The zero value means "unset"; check with IsZero.
type UserID struct {
	id string
}

// ParseUserID checks the shape of a raw user ID string and wraps it.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := splitSigil(raw, '@', "user ID"); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID panics when the input does not parse. For tests and
// package-level literals only.
func MustParseUserID(raw string) UserID {
	userID, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUserID(%q): %v", raw, err))
	}
	return userID
}

// String returns the canonical "@localpart:server" form.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is unset.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the text between the '@' sigil and the ':server'
// suffix, or "" for the zero value.
func (u UserID) Localpart() string {
	localpart, _, _ := splitSigil(u.id, '@', "user ID")
	return localpart
}

// Server returns the server name after the first ':', or "" for the
// zero value.
func (u UserID) Server() string {
	_, server, _ := splitSigil(u.id, '@', "user ID")
	return server
}

// MarshalText serializes the canonical form for JSON and CBOR.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText parses during decode, so a struct field of this type
// never holds a malformed ID. Empty input leaves the zero value.
func (u *UserID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*u = UserID{}
		return nil
	}
	userID, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*u = userID
	return nil
}
