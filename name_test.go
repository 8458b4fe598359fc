// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"errors"
	"strings"
	"testing"
)

func TestNameRoundTrip(t *testing.T) {
	t.Parallel()

	field := EncodeName("VIRGO.DFF")
	if got := DecodeName(field); got != "VIRGO.DFF" {
		t.Fatalf("DecodeName=%q, want VIRGO.DFF", got)
	}

	for i := len("VIRGO.DFF"); i < NameFieldSize; i++ {
		if field[i] != 0 {
			t.Fatalf("field[%d]=%#x, want 0", i, field[i])
		}
	}
}

func TestEncodeNameTruncates(t *testing.T) {
	t.Parallel()

	long := "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345678"
	field := EncodeName(long)
	if field[MaxNameLen] != 0 {
		t.Fatalf("terminator=%#x, want 0", field[MaxNameLen])
	}

	got := DecodeName(field)
	if got != long[:MaxNameLen] {
		t.Fatalf("DecodeName=%q, want %q", got, long[:MaxNameLen])
	}
}

func TestEncodeNameLatin1(t *testing.T) {
	t.Parallel()

	field := EncodeName("café世.txd")
	if field[3] != 0xe9 {
		t.Fatalf("field[3]=%#x, want 0xe9", field[3])
	}

	if got := DecodeName(field); got != "café.txd" {
		t.Fatalf("DecodeName=%q, want café.txd", got)
	}
}

func TestDecodeNameWithoutTerminator(t *testing.T) {
	t.Parallel()

	var field [NameFieldSize]byte
	for i := range field {
		field[i] = 'A'
	}
	field[0] = 0xff

	got := DecodeName(field)
	if len([]rune(got)) != NameFieldSize {
		t.Fatalf("rune count=%d, want %d", len([]rune(got)), NameFieldSize)
	}
	if []rune(got)[0] != 'ÿ' {
		t.Fatalf("first rune=%q, want U+00FF", []rune(got)[0])
	}
}

func TestEncodeNameWithPolicy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		in      string
		policy  NamePolicy
		wantErr error
		want    string
	}{
		{name: "lossy fits", in: "BUS.TXD", policy: NamePolicyLossy, want: "BUS.TXD"},
		{name: "lossy long", in: strings.Repeat("x", 30), policy: NamePolicyLossy, want: strings.Repeat("x", MaxNameLen)},
		{name: "strict exact", in: strings.Repeat("x", MaxNameLen), policy: NamePolicyStrict, want: strings.Repeat("x", MaxNameLen)},
		{name: "strict long", in: strings.Repeat("x", MaxNameLen+1), policy: NamePolicyStrict, wantErr: ErrInvalidNameLength},
		{name: "strict wide rune", in: "世.dff", policy: NamePolicyStrict, wantErr: ErrInvalidName},
		{name: "strict latin1", in: "é.dff", policy: NamePolicyStrict, want: "é.dff"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			field, err := EncodeNameWithPolicy(tc.in, tc.policy)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeNameWithPolicy: %v", err)
			}
			if got := DecodeName(field); got != tc.want {
				t.Fatalf("DecodeName=%q, want %q", got, tc.want)
			}
		})
	}
}
