// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/statusdesk/statusdesk/lib/ref"
)

var testOperator = ref.MustParseUserID("@alice:example.org")

// testDocument returns a compressible JSON document well above the
// compression floor, shaped like a published status file.
func testDocument() []byte {
	record := `{"status":"degraded","affectedServices":"API","summary":"Elevated error rates","date":"2026-03-01T12:00","updates":[]}`
	return []byte("[\n" + strings.Repeat("  "+record+",\n", 20) + "  " + record + "\n]\n")
}

func testEntry(at time.Time, oldTag, newTag string) Entry {
	return Entry{
		Time:     at,
		Operator: testOperator,
		OldTag:   oldTag,
		NewTag:   newTag,
	}
}

func TestAppendRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.journal")
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(90 * time.Minute)

	if err := Append(path, testEntry(first, "", "blob-1"), testDocument()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(path, testEntry(second, "blob-1", "blob-2"), testDocument()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	frames, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}

	entry := frames[0].Entry
	if !entry.Time.Equal(first) {
		t.Errorf("time = %v, want %v", entry.Time, first)
	}
	if entry.Operator != testOperator {
		t.Errorf("operator = %v", entry.Operator)
	}
	if entry.OldTag != "" || entry.NewTag != "blob-1" {
		t.Errorf("tags = %q -> %q", entry.OldTag, entry.NewTag)
	}
	if !bytes.Equal(frames[0].Document, testDocument()) {
		t.Error("first document does not round-trip")
	}

	if frames[1].Entry.OldTag != "blob-1" || frames[1].Entry.NewTag != "blob-2" {
		t.Errorf("second frame tags = %q -> %q", frames[1].Entry.OldTag, frames[1].Entry.NewTag)
	}
}

func TestAppend_CompressesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.journal")
	document := testDocument()

	if err := Append(path, testEntry(time.Now(), "", "blob-1"), document); err != nil {
		t.Fatalf("Append: %v", err)
	}

	frames, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	entry := frames[0].Entry
	if entry.Compression != CompressionZstd {
		t.Errorf("compression = %s, want zstd for repetitive JSON", entry.Compression)
	}
	if entry.CompressedSize >= entry.UncompressedSize {
		t.Errorf("compressed %d >= uncompressed %d", entry.CompressedSize, entry.UncompressedSize)
	}
	if entry.UncompressedSize != uint32(len(document)) {
		t.Errorf("uncompressed size = %d, want %d", entry.UncompressedSize, len(document))
	}
	if len(entry.Digest) != 32 {
		t.Errorf("digest length = %d, want 32", len(entry.Digest))
	}
}

func TestAppend_TinyDocumentStoredRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.journal")

	if err := Append(path, testEntry(time.Now(), "", "blob-1"), []byte("[]\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	frames, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	entry := frames[0].Entry
	if entry.Compression != CompressionNone {
		t.Errorf("compression = %s, want none for a tiny document", entry.Compression)
	}
	if entry.CompressedSize != entry.UncompressedSize {
		t.Errorf("sizes differ for raw payload: %d != %d", entry.CompressedSize, entry.UncompressedSize)
	}
}

func TestAppend_WritesSignatureOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.journal")
	for i := 0; i < 3; i++ {
		if err := Append(path, testEntry(time.Now(), "", "tag"), []byte("[]\n")); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading journal: %v", err)
	}
	if !bytes.HasPrefix(raw, journalMagic[:]) {
		t.Error("journal does not start with the signature")
	}
	if bytes.Count(raw, journalMagic[:]) != 1 {
		t.Error("signature written more than once")
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.journal"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestRead_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.journal")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	frames, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("frames = %d, want 0", len(frames))
	}
}

func TestRead_RejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("this is not a journal at all"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Read(path)
	if err == nil || !strings.Contains(err.Error(), "not a statusdesk journal") {
		t.Errorf("err = %v, want signature rejection", err)
	}
}

func TestRead_TruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.journal")
	if err := Append(path, testEntry(time.Now(), "", "blob-1"), []byte("[]\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(path, testEntry(time.Now(), "blob-1", "blob-2"), testDocument()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// Tear the tail of the second frame, as a crash mid-write would.
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatal(err)
	}

	frames, err := Read(path)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want the 1 intact frame", len(frames))
	}
	if frames[0].Entry.NewTag != "blob-1" {
		t.Errorf("surviving frame tag = %q", frames[0].Entry.NewTag)
	}
}

func TestRead_DetectsCorruptedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.journal")
	// Tiny document: stored raw, so a payload flip reaches the digest
	// check instead of failing decompression.
	if err := Append(path, testEntry(time.Now(), "", "blob-1"), []byte("[]\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatal(err)
	}

	_, err = Read(path)
	if err == nil || !strings.Contains(err.Error(), "digest") {
		t.Errorf("err = %v, want digest mismatch", err)
	}
}

func TestEntry_ShortDigest(t *testing.T) {
	entry := Entry{Digest: []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04, 0xff}}
	if got := entry.ShortDigest(); got != "deadbeef01020304" {
		t.Errorf("ShortDigest = %q", got)
	}

	short := Entry{Digest: []byte{0xab}}
	if got := short.ShortDigest(); got != "ab" {
		t.Errorf("ShortDigest on short digest = %q", got)
	}
}

func TestAppend_RejectsOversizedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.journal")
	oversized := make([]byte, maxPayloadSize+1)

	err := Append(path, testEntry(time.Now(), "", "tag"), oversized)
	if err == nil {
		t.Fatal("expected error for oversized document")
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("rejected append should not create the file")
	}
}
