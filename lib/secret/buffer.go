// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps passwords and access tokens in memory that
// cannot leak through the usual channels.
//
// A Buffer lives in an anonymous mmap region outside the Go heap:
// mlock keeps it off swap, MADV_DONTDUMP keeps it out of core dumps,
// and the garbage collector never copies or moves it. Close zeroes
// the region before unmapping, which on non-heap memory genuinely
// destroys the material rather than orphaning stale copies.
package secret

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer is the mmap-backed container for one secret. It must not be
// copied. Close releases the region; any read after Close panics.
type Buffer struct {
	mu     sync.Mutex
	region []byte
	length int
	closed bool
}

// New allocates a protected buffer of the given size. The caller must
// Close it when the secret is no longer needed.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size %d is not positive", size)
	}

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}
	if err := lockRegion(region); err != nil {
		unix.Munmap(region)
		return nil, err
	}
	return &Buffer{region: region, length: size}, nil
}

// lockRegion pins region into RAM and keeps it out of core dumps.
func lockRegion(region []byte) error {
	if err := unix.Mlock(region); err != nil {
		return fmt.Errorf("secret: mlock: %w", err)
	}
	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(region)
		return fmt.Errorf("secret: madvise(MADV_DONTDUMP): %w", err)
	}
	return nil
}

// NewFromBytes copies source into a protected buffer and zeroes
// source in place, so the caller's slice stops holding the secret.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: refusing to store an empty secret")
	}

	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}

	copy(buffer.region, source)
	Zero(source)
	return buffer, nil
}

// Bytes returns the secret. The slice aliases the mmap region
// directly; it goes stale (and its contents vanish) when the Buffer
// is closed, so never retain it.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: use after Close")
	}
	return b.region[:b.length]
}

// String returns the secret as a string. The conversion makes an
// unprotected heap copy, so reach for this only at API boundaries
// that insist on a string; prefer Bytes elsewhere.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: use after Close")
	}
	return string(b.region[:b.length])
}

// Len returns the secret's size in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// Close zeroes and unmaps the region. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.region)
	errMunlock := unix.Munlock(b.region)
	errMunmap := unix.Munmap(b.region)
	b.region = nil

	// The mapping disappears at process exit regardless; report the
	// first failure for the caller's log.
	if errMunlock != nil {
		return fmt.Errorf("secret: munlock: %w", errMunlock)
	}
	if errMunmap != nil {
		return fmt.Errorf("secret: munmap: %w", errMunmap)
	}
	return nil
}

// Zero overwrites data with zero bytes. Use it on transient heap
// slices that touched secret material (decoded JSON, file contents)
// once the secret has moved into a Buffer.
func Zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}
