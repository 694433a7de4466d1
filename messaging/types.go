// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/statusdesk/statusdesk/lib/ref"
)

// MessageContent is the content body of an m.room.message event. Body
// always carries plain text; formatted messages additionally set
// Format to "org.matrix.custom.html" and put the HTML in
// FormattedBody, leaving Body as the fallback for clients that do not
// render HTML.
type MessageContent struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// NewTextMessage builds a plain m.text message, the type clients send
// for human-typed input.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: "m.text", Body: body}
}

// NewNotice builds a plain m.notice. Notices are the conventional
// type for bot output: clients render them without notification
// sounds, and well-behaved bots ignore them, which prevents reply
// loops.
func NewNotice(body string) MessageContent {
	return MessageContent{MsgType: "m.notice", Body: body}
}

// NewHTMLNotice builds an HTML-formatted notice with a plain-text
// fallback.
func NewHTMLNotice(body, htmlBody string) MessageContent {
	return MessageContent{
		MsgType:       "m.notice",
		Body:          body,
		Format:        "org.matrix.custom.html",
		FormattedBody: htmlBody,
	}
}

// Event is a Matrix event as delivered by /sync. Content is left as a
// generic map: the service inspects only a couple of keys and the
// full m.room.message schema is not worth modeling.
type Event struct {
	EventID ref.EventID    `json:"event_id"`
	Type    ref.EventType  `json:"type"`
	Sender  ref.UserID     `json:"sender"`
	Content map[string]any `json:"content"`
	RoomID  ref.RoomID     `json:"room_id,omitempty"`
}

// SyncOptions controls one /sync request.
type SyncOptions struct {
	// Since is the next_batch token from the previous sync; empty
	// starts a fresh stream.
	Since string
	// Timeout is the server-side long-poll hold in milliseconds.
	Timeout int
	// SetTimeout sends the timeout parameter even when Timeout is 0,
	// which asks for an immediate return. Without it the server picks
	// its own default.
	SetTimeout bool
	// Filter is a server-side filter ID or inline JSON filter.
	Filter string
}

// SyncResponse is the portion of the /sync payload the service reads.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection holds per-room sync data, keyed by room ID. The key
// type's TextUnmarshaler validates each ID during decoding.
type RoomsSection struct {
	Join map[ref.RoomID]JoinedRoom `json:"join,omitempty"`
}

// JoinedRoom is the sync data for one joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection carries a room's new timeline events. Limited means
// the server truncated the list: events between PrevBatch and the
// oldest entry here were dropped from this response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection carries a room's new state events.
type StateSection struct {
	Events []Event `json:"events"`
}

// Request and response bodies for the individual endpoints.

type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

type SendEventResponse struct {
	EventID string `json:"event_id"`
}

type ResolveAliasResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}

type ServerVersionsResponse struct {
	Versions []string `json:"versions"`
}
