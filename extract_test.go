package img

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/woozymasta/pathrules"
)

func TestExtract_All(t *testing.T) {
	t.Parallel()

	a := openVirgoV1(t)
	dst := t.TempDir()

	var mu sync.Mutex
	done := map[string]int64{}
	err := a.Extract(context.Background(), dst, ExtractOptions{
		MaxWorkers: 2,
		OnEntryDone: func(entry Entry, written int64, _ string) {
			mu.Lock()
			done[entry.Name] = written
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dst, "VIRGO.DFF"))
	if err != nil {
		t.Fatalf("read VIRGO.DFF: %v", err)
	}
	if !bytes.Equal(got, padded([]byte("Virgo-v1"))) {
		t.Fatal("VIRGO.DFF payload mismatch")
	}

	if len(done) != 2 || done["LANDSTAL.DFF"] != SectorSize {
		t.Fatalf("done=%v", done)
	}
}

func TestExtract_RulesAndIndices(t *testing.T) {
	t.Parallel()

	a := openVirgoV1(t)

	dst := t.TempDir()
	err := a.Extract(context.Background(), dst, ExtractOptions{
		Rules: []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "land*"}},
	})
	if err != nil {
		t.Fatalf("Extract rules: %v", err)
	}
	assertDirNames(t, dst, "LANDSTAL.DFF")

	dst = t.TempDir()
	if err := a.Extract(context.Background(), dst, ExtractOptions{Indices: []int{0}}); err != nil {
		t.Fatalf("Extract indices: %v", err)
	}
	assertDirNames(t, dst, "VIRGO.DFF")

	err = a.Extract(context.Background(), t.TempDir(), ExtractOptions{Indices: []int{9}})
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err=%v, want ErrEntryNotFound", err)
	}
}

func TestExtract_SanitizedAndRawNames(t *testing.T) {
	t.Parallel()

	dir, data := createManualV1(t, []manualEntry{
		{name: "CON.TXD", data: []byte("con"), offset: 0, sectors: 1},
		{name: "a/b.dff", data: []byte("ab"), offset: 1, sectors: 1},
	})
	a, err := OpenV1(bytes.NewReader(dir), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenV1: %v", err)
	}

	dst := t.TempDir()
	if err := a.Extract(context.Background(), dst, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertDirNames(t, dst, "_CON.TXD", "a_b.dff")

	err = a.Extract(context.Background(), t.TempDir(), ExtractOptions{RawNames: true})
	if !errors.Is(err, ErrInvalidExtractPath) {
		t.Fatalf("err=%v, want ErrInvalidExtractPath", err)
	}
}

func TestExtract_FileModes(t *testing.T) {
	t.Parallel()

	a := openVirgoV1(t)
	dst := t.TempDir()
	existing := filepath.Join(dst, "VIRGO.DFF")
	if err := os.WriteFile(existing, bytes.Repeat([]byte{1}, 3*SectorSize), 0o600); err != nil {
		t.Fatal(err)
	}

	err := a.Extract(context.Background(), dst, ExtractOptions{Indices: []int{0}, FileMode: ExtractFileModeCreateOnly})
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("create_only err=%v, want os.ErrExist", err)
	}

	if err := a.Extract(context.Background(), dst, ExtractOptions{Indices: []int{0}, FileMode: ExtractFileModeTruncate}); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	info, err := os.Stat(existing)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != SectorSize {
		t.Fatalf("size=%d, want %d", info.Size(), SectorSize)
	}
}

func TestExtract_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := openVirgoV1(t).Extract(ctx, t.TempDir(), ExtractOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestExtract_TruncatedSource(t *testing.T) {
	t.Parallel()

	dir, data := createManualV1(t, virgoEntries())
	a, err := OpenV1(bytes.NewReader(dir), bytes.NewReader(data[:SectorSize]))
	if err != nil {
		t.Fatalf("OpenV1: %v", err)
	}

	err = a.Extract(context.Background(), t.TempDir(), ExtractOptions{MaxWorkers: 1})
	if !errors.Is(err, ErrTruncatedEntry) {
		t.Fatalf("err=%v, want ErrTruncatedEntry", err)
	}
}

func assertDirNames(t *testing.T, dir string, want ...string) {
	t.Helper()

	items, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	got := make(map[string]struct{}, len(items))
	for _, item := range items {
		got[item.Name()] = struct{}{}
	}

	if len(got) != len(want) {
		t.Fatalf("files=%v, want %v", got, want)
	}
	for _, name := range want {
		if _, ok := got[name]; !ok {
			t.Fatalf("missing %s in %v", name, got)
		}
	}
}
