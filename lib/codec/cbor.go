// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides statusdesk's standard CBOR encoding
// configuration.
//
// Statusdesk uses two serialization formats with a clear boundary:
// JSON for external interfaces (the Matrix Client-Server API, the
// GitHub REST API, the published status document, CLI output) and
// CBOR for internal protocols (the control socket and the publish
// journal). This package holds the shared CBOR modes so every caller
// encodes identically.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. Same logical data always produces identical bytes, which
// keeps journal digests stable.
package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	// The ref identifier types hide their value in an unexported
	// field and expose it through MarshalText. Route TextMarshaler
	// types through that path; the default reflection path would
	// emit them as empty maps.
	options.TextMarshaler = cbor.TextMarshalerTextString
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: building the CBOR encode mode: " + err.Error())
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{
		// A decode into any needs a concrete map type. CBOR permits
		// non-string keys, so the library default is map[any]any;
		// statusdesk data never has non-string keys, and
		// map[string]any is what encoding/json interop expects.
		// Struct targets are unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// The decode half of the TextMarshaler setting above.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: building the CBOR decode mode: " + err.Error())
	}
	return mode
}

// Marshal encodes v with the deterministic encode mode.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder and Decoder are aliased so consumers import lib/codec
// alone, never fxamacker/cbor directly.
type (
	Encoder = cbor.Encoder
	Decoder = cbor.Decoder
)

// RawMessage is a raw encoded CBOR value. Use it to delay decoding of
// handler-specific payloads until the handler knows the target type.
type RawMessage = cbor.RawMessage

// NewEncoder returns a stream encoder writing deterministic CBOR to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading from r with the
// standard decode mode.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
