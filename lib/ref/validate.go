// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// splitSigil splits a sigil-prefixed Matrix identifier of the form
// <sigil>localpart:server into its parts. The first colon separates
// localpart from server, so server names with ports
// ("example.org:8448") keep the port. kind names the identifier in
// error messages.
func splitSigil(identifier string, sigil byte, kind string) (localpart, server string, err error) {
	if identifier == "" {
		return "", "", fmt.Errorf("%s is empty", kind)
	}
	if identifier[0] != sigil {
		return "", "", fmt.Errorf("%s %q must start with '%c'", kind, identifier, sigil)
	}
	localpart, server, found := strings.Cut(identifier[1:], ":")
	switch {
	case !found:
		return "", "", fmt.Errorf("%s %q is missing the :server part", kind, identifier)
	case localpart == "":
		return "", "", fmt.Errorf("%s %q has an empty localpart", kind, identifier)
	case server == "":
		return "", "", fmt.Errorf("%s %q has an empty server name", kind, identifier)
	}
	return localpart, server, nil
}
