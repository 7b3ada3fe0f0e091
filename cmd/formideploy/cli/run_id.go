// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package cli

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRunID creates a random 8-byte hex string attached to every
// log line of one invocation, for correlating CI output across
// actions. Uses crypto/rand for uniqueness without external
// dependencies.
func GenerateRunID() (string, error) {
	var buffer [8]byte
	if _, err := rand.Read(buffer[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer[:]), nil
}
