// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal is the append-only publish audit log.
//
// Every successful publish appends one frame to a local file: a CBOR
// header recording when, who, the old and new version tags, a BLAKE3
// digest of the published document, and the compression tag and
// sizes, followed by the published JSON document itself, compressed.
// The journal answers "what exactly went out, when, by whose hand"
// even after the remote history has been rewritten.
//
// The file is an 8-byte signature followed by frames:
//
//	[4-byte LE header length][CBOR header][payload]
//
// Read verifies every document against its header digest and
// tolerates a truncated final frame (crash mid-append): the complete
// frames are returned together with ErrTruncated.
//
// One writer at a time. The service's single dispatch loop satisfies
// this without locking.
package journal

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeebo/blake3"

	"github.com/statusdesk/statusdesk/lib/codec"
	"github.com/statusdesk/statusdesk/lib/ref"
)

const (
	journalVersion = 1

	// maxHeaderSize bounds the CBOR header; real headers are well
	// under a kilobyte.
	maxHeaderSize = 64 * 1024

	// maxPayloadSize bounds a single published document.
	maxPayloadSize = 16 << 20
)

// journalMagic is the 8-byte file signature: name, version byte,
// reserved byte.
var journalMagic = [8]byte{'S', 'D', 'J', 'R', 'N', 'L', journalVersion, 0}

// ErrTruncated reports that the journal ends mid-frame, which is what
// a crash during an append leaves behind. The frames before the torn
// one are intact and are returned alongside this error.
var ErrTruncated = errors.New("journal: truncated frame at end of file")

// Entry is the header of one journal frame.
type Entry struct {
	// Time is when the publish succeeded. Stored at second precision.
	Time time.Time `cbor:"time"`

	// Operator is the Matrix user who issued the publish.
	Operator ref.UserID `cbor:"operator"`

	// OldTag is the version tag the publish was conditioned on, empty
	// when the publish created the file.
	OldTag string `cbor:"old_tag"`

	// NewTag is the version tag of the published content.
	NewTag string `cbor:"new_tag"`

	// Digest is the 32-byte BLAKE3 digest of the uncompressed
	// document. Read refuses frames whose payload does not match.
	Digest []byte `cbor:"digest"`

	// Compression is how the payload is stored.
	Compression Compression `cbor:"compression"`

	// CompressedSize is the stored payload length.
	CompressedSize uint32 `cbor:"compressed_size"`

	// UncompressedSize is the document length before compression.
	UncompressedSize uint32 `cbor:"uncompressed_size"`
}

// ShortDigest returns the first 8 digest bytes in hex — the form the
// service logs on publish, for correlating log lines with frames.
func (e Entry) ShortDigest() string {
	if len(e.Digest) < 8 {
		return hex.EncodeToString(e.Digest)
	}
	return hex.EncodeToString(e.Digest[:8])
}

// Frame is one replayed journal record: the header plus the
// decompressed, digest-verified document.
type Frame struct {
	Entry    Entry
	Document []byte
}

// Append records one publish. The caller fills Time, Operator,
// OldTag, and NewTag; digest, compression tag, and sizes are computed
// here so they cannot disagree with the payload. The file is created
// on first use.
func Append(path string, entry Entry, document []byte) error {
	if len(document) > maxPayloadSize {
		return fmt.Errorf("journal: document is %d bytes, larger than the %d byte frame limit",
			len(document), maxPayloadSize)
	}

	tag := selectCompression(document)
	payload, err := compress(document, tag)
	if err != nil {
		if errors.Is(err, errIncompressible) {
			tag, payload = CompressionNone, document
		} else {
			return fmt.Errorf("journal: compressing document: %w", err)
		}
	}

	digest := blake3.Sum256(document)
	entry.Digest = digest[:]
	entry.Compression = tag
	entry.CompressedSize = uint32(len(payload))
	entry.UncompressedSize = uint32(len(document))

	header, err := codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal: encoding header: %w", err)
	}
	if len(header) > maxHeaderSize {
		return fmt.Errorf("journal: header is %d bytes, larger than the %d byte limit",
			len(header), maxHeaderSize)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("journal: %w", err)
	}

	// Assemble the whole frame (magic included for a fresh file) and
	// write it in one call, so a crash tears at most the final frame.
	frame := make([]byte, 0, len(journalMagic)+4+len(header)+len(payload))
	if info.Size() == 0 {
		frame = append(frame, journalMagic[:]...)
	}
	var headerLength [4]byte
	binary.LittleEndian.PutUint32(headerLength[:], uint32(len(header)))
	frame = append(frame, headerLength[:]...)
	frame = append(frame, header...)
	frame = append(frame, payload...)

	if _, err := file.Write(frame); err != nil {
		file.Close()
		return fmt.Errorf("journal: writing frame: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("journal: syncing: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// Read replays the journal, oldest first, verifying each document
// against its header digest. An empty file is an empty journal. A
// torn final frame returns the intact frames plus ErrTruncated; any
// other malformation is an error with whatever was readable before it.
func Read(path string) ([]Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	var magic [8]byte
	if _, err := io.ReadFull(reader, magic[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: reading signature: %w", err)
	}
	if magic != journalMagic {
		return nil, fmt.Errorf("journal: %s is not a statusdesk journal", path)
	}

	var frames []Frame
	for frameIndex := 0; ; frameIndex++ {
		var headerLength [4]byte
		if _, err := io.ReadFull(reader, headerLength[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return frames, ErrTruncated
			}
			return frames, fmt.Errorf("journal: frame %d: %w", frameIndex, err)
		}
		headerSize := binary.LittleEndian.Uint32(headerLength[:])
		if headerSize == 0 || headerSize > maxHeaderSize {
			return frames, fmt.Errorf("journal: frame %d: implausible header size %d", frameIndex, headerSize)
		}

		header := make([]byte, headerSize)
		if _, err := io.ReadFull(reader, header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return frames, ErrTruncated
			}
			return frames, fmt.Errorf("journal: frame %d: %w", frameIndex, err)
		}
		var entry Entry
		if err := codec.Unmarshal(header, &entry); err != nil {
			return frames, fmt.Errorf("journal: frame %d: decoding header: %w", frameIndex, err)
		}
		if entry.CompressedSize > maxPayloadSize || entry.UncompressedSize > maxPayloadSize {
			return frames, fmt.Errorf("journal: frame %d: implausible payload size", frameIndex)
		}

		payload := make([]byte, entry.CompressedSize)
		if _, err := io.ReadFull(reader, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return frames, ErrTruncated
			}
			return frames, fmt.Errorf("journal: frame %d: %w", frameIndex, err)
		}

		document, err := decompress(payload, entry.Compression, int(entry.UncompressedSize))
		if err != nil {
			return frames, fmt.Errorf("journal: frame %d: %w", frameIndex, err)
		}
		digest := blake3.Sum256(document)
		if !bytes.Equal(digest[:], entry.Digest) {
			return frames, fmt.Errorf("journal: frame %d: document does not match header digest", frameIndex)
		}

		frames = append(frames, Frame{Entry: entry, Document: document})
	}
}
