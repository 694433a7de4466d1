// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
)

// ReadFromPath loads a secret into an mmap-backed Buffer from the
// named file, or from the first line of stdin when path is "-".
// Surrounding whitespace is stripped; echo and printf pipelines
// almost always append a newline. An empty result is an error. The
// caller owns the returned buffer and must Close it.
func ReadFromPath(path string) (*Buffer, error) {
	raw, err := readSource(path)
	if err != nil {
		return nil, err
	}
	defer Zero(raw)

	value := bytes.TrimSpace(raw)
	if len(value) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	// NewFromBytes zeros value, which aliases the middle of raw; the
	// deferred Zero clears the whitespace around it.
	return NewFromBytes(value)
}

func readSource(path string) ([]byte, error) {
	if path != "-" {
		return os.ReadFile(path)
	}
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Bytes(), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return nil, fmt.Errorf("stdin is empty")
}
