// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"bytes"
	"fmt"
	"strings"
)

// DecodeName converts a fixed-width name field to text.
// Bytes up to the first NUL (or all 24 bytes when none) map one-to-one to
// Latin-1 code points; the field is never treated as UTF-8.
func DecodeName(field [NameFieldSize]byte) string {
	n := bytes.IndexByte(field[:], 0)
	if n < 0 {
		n = len(field)
	}

	var b strings.Builder
	b.Grow(n)
	for _, c := range field[:n] {
		b.WriteRune(rune(c))
	}

	return b.String()
}

// EncodeName converts text to a NUL-padded name field using NamePolicyLossy.
// Runes outside Latin-1 are dropped and content is cut to MaxNameLen bytes.
func EncodeName(name string) [NameFieldSize]byte {
	field, _ := EncodeNameWithPolicy(name, NamePolicyLossy)
	return field
}

// EncodeNameWithPolicy converts text to a NUL-padded name field.
// With NamePolicyStrict it fails instead of dropping or truncating.
func EncodeNameWithPolicy(name string, policy NamePolicy) ([NameFieldSize]byte, error) {
	var field [NameFieldSize]byte

	if policy == NamePolicyStrict {
		if err := ValidateName(name); err != nil {
			return field, err
		}
	}

	n := 0
	for _, r := range name {
		if r > 0xff {
			continue
		}
		if n == MaxNameLen {
			break
		}

		field[n] = byte(r)
		n++
	}

	return field, nil
}

// ValidateName reports whether name encodes without loss.
func ValidateName(name string) error {
	n := 0
	for _, r := range name {
		if r > 0xff {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}

		n++
	}

	if n > MaxNameLen {
		return fmt.Errorf("%w: %q is %d bytes", ErrInvalidNameLength, name, n)
	}

	return nil
}
