// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// EventType names a Matrix timeline or state event type, e.g.
// "m.room.message". Statusdesk only ever sends and filters on
// standard m.room.* types, so this is a bare named string rather
// than a wrapper: there is nothing to validate, the name only keeps
// event types from being mixed up with other strings at compile
// time.
type EventType string

// String returns the event type, e.g. "m.room.message".
func (t EventType) String() string { return string(t) }
