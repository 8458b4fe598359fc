package img

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
)

const (
	benchDefaultEntries    = 128
	benchLargeIndexEntries = 16000
)

var (
	// benchListSink prevents compiler elimination in list benchmark loops.
	benchListSink uint64
)

// createBenchV2 builds a V2 archive with count entries of one or two sectors.
func createBenchV2(b *testing.B, count int) []byte {
	b.Helper()

	inputs := make([]Input, count)
	for i := range inputs {
		payload := bytes.Repeat([]byte{byte(i)}, 1000+(i%3)*1000)
		inputs[i] = bytesInput(fmt.Sprintf("E%05d.DFF", i), payload)
	}

	out := &memFile{}
	if _, err := PackV2(context.Background(), out, inputs, PackOptions{}); err != nil {
		b.Fatal(err)
	}

	return out.Bytes()
}

func BenchmarkOpenV2Parse(b *testing.B) {
	data := createBenchV2(b, benchDefaultEntries)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		a, err := OpenV2(bytes.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}
		_ = a.Len()
	}
}

func BenchmarkOpenV1ParseLargeIndex(b *testing.B) {
	entries := make([]manualEntry, benchLargeIndexEntries)
	for i := range entries {
		entries[i] = manualEntry{name: fmt.Sprintf("E%05d.TXD", i), offset: uint32(i), sectors: 1}
	}
	dir, data := createManualV1(b, entries)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		a, err := OpenV1(bytes.NewReader(dir), bytes.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}

		var total uint64
		for _, e := range a.All() {
			total += e.Length
		}
		benchListSink = total
	}
}

func BenchmarkReadEntries(b *testing.B) {
	a, err := OpenV2(bytes.NewReader(createBenchV2(b, benchDefaultEntries)))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		for i := range a.Len() {
			r, _ := a.Open(i)
			if _, err := io.Copy(io.Discard, r); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkPackV2(b *testing.B) {
	payload := bytes.Repeat([]byte("x"), 5000)
	inputs := make([]Input, 20)
	for i := range inputs {
		inputs[i] = bytesInput(fmt.Sprintf("F%d.DFF", i), payload)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, err := PackV2(context.Background(), &discardSeeker{}, inputs, PackOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtract(b *testing.B) {
	benchmarkExtractWithSanitize(b, false)
}

func BenchmarkExtractSanitize(b *testing.B) {
	benchmarkExtractWithSanitize(b, true)
}

// benchmarkExtractWithSanitize benchmarks full extract flow with optional name sanitization.
func benchmarkExtractWithSanitize(b *testing.B, sanitizeNames bool) {
	a, err := OpenV2(bytes.NewReader(createBenchV2(b, benchDefaultEntries)))
	if err != nil {
		b.Fatal(err)
	}
	dir := b.TempDir()
	opts := ExtractOptions{
		MaxWorkers: 4,
		RawNames:   !sanitizeNames,
	}

	b.ReportAllocs()
	b.ResetTimer()
	run := 0
	for b.Loop() {
		out := filepath.Join(dir, fmt.Sprintf("run%d", run))
		run++
		if err := a.Extract(context.Background(), out, opts); err != nil {
			b.Fatal(err)
		}
	}
}
