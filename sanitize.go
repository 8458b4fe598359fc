// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// reservedDeviceNames contains case-insensitive reserved DOS/Windows device names.
var reservedDeviceNames = map[string]struct{}{
	"aux":     {},
	"clock$":  {},
	"com1":    {},
	"com2":    {},
	"com3":    {},
	"com4":    {},
	"com5":    {},
	"com6":    {},
	"com7":    {},
	"com8":    {},
	"com9":    {},
	"con":     {},
	"conin$":  {},
	"conout$": {},
	"lpt1":    {},
	"lpt2":    {},
	"lpt3":    {},
	"lpt4":    {},
	"lpt5":    {},
	"lpt6":    {},
	"lpt7":    {},
	"lpt8":    {},
	"lpt9":    {},
	"nul":     {},
	"prn":     {},
}

// SanitizeName rewrites one entry name to a deterministic filesystem-safe file name.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}

	rawReserved := isReservedDeviceName(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isUnsafeNameRune(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	sanitized := strings.TrimRight(b.String(), ". ")
	if sanitized == "" {
		return "_"
	}

	if rawReserved || isReservedDeviceName(sanitized) {
		sanitized = "_" + sanitized
	}

	return sanitized
}

// sanitizeEntryNames maps entries to unique sanitized file names, in order.
func sanitizeEntryNames(names []string) ([]string, error) {
	out := make([]string, len(names))
	used := make(map[string]struct{}, len(names))
	nextSuffix := make(map[string]int, len(names))

	for i, name := range names {
		unique, err := makeNameUnique(SanitizeName(name), used, nextSuffix)
		if err != nil {
			return nil, fmt.Errorf("sanitize name %s: %w", name, err)
		}

		out[i] = unique
	}

	return out, nil
}

// validateRawNames rejects names that are unsafe as a single file name or collide.
func validateRawNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" || name == "." || name == ".." ||
			strings.ContainsAny(name, "/\\\x00") {
			return fmt.Errorf("%w: %q", ErrInvalidExtractPath, name)
		}

		key := strings.ToLower(name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidExtractPath, name)
		}

		seen[key] = struct{}{}
	}

	return nil
}

// isUnsafeNameRune reports whether rune is unsafe in file names and should be replaced.
func isUnsafeNameRune(r rune) bool {
	return unicode.IsControl(r) || unicode.In(r, unicode.Cf)
}

// isReservedDeviceName reports whether name matches a reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	candidate = strings.TrimRight(candidate, ". :")
	if candidate == "" {
		return false
	}

	_, ok := reservedDeviceNames[candidate]
	return ok
}

// makeNameUnique resolves case-insensitive collisions by adding a deterministic numeric suffix.
func makeNameUnique(name string, used map[string]struct{}, nextSuffix map[string]int) (string, error) {
	key := strings.ToLower(name)
	if _, exists := used[key]; !exists {
		used[key] = struct{}{}
		return name, nil
	}

	startIdx := 2
	if savedIdx, exists := nextSuffix[key]; exists && savedIdx > startIdx {
		startIdx = savedIdx
	}

	for idx := startIdx; idx < 1000000; idx++ {
		candidate := withNumericSuffix(name, idx)
		candidateKey := strings.ToLower(candidate)
		if _, exists := used[candidateKey]; exists {
			continue
		}

		used[candidateKey] = struct{}{}
		nextSuffix[key] = idx + 1
		return candidate, nil
	}

	return "", ErrInvalidExtractPath
}

// withNumericSuffix appends "~N" before the extension.
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "~" + strconv.Itoa(n) + ext
}
