package img

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// memFile is an in-memory io.ReadWriteSeeker; writes past the end zero-fill the gap.
type memFile struct {
	data []byte
	pos  int64
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}

	copy(m.data[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = m.pos + offset
	case io.SeekEnd:
		next = int64(len(m.data)) + offset
	default:
		return 0, errors.New("memFile: invalid whence")
	}
	if next < 0 {
		return 0, errors.New("memFile: negative position")
	}

	m.pos = next
	return next, nil
}

// Bytes returns a copy of the current contents.
func (m *memFile) Bytes() []byte {
	return bytes.Clone(m.data)
}

// failingWriter records writes and fails them while fail is set.
// A failing write still stores up to accept bytes first.
type failingWriter struct {
	buf    bytes.Buffer
	accept int
	fail   bool
}

var errWriteFailed = errors.New("write failed")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.fail {
		n, _ := w.buf.Write(p[:min(w.accept, len(p))])
		return n, errWriteFailed
	}

	return w.buf.Write(p)
}

// discardSeeker accepts and drops all writes.
type discardSeeker struct {
	pos int64
}

func (d *discardSeeker) Write(p []byte) (int, error) {
	d.pos += int64(len(p))
	return len(p), nil
}

func (d *discardSeeker) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart {
		d.pos = offset
	} else {
		d.pos += offset
	}

	return d.pos, nil
}

// zeroReader yields zeros forever.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// manualEntry is one payload placed by the manual archive builders.
type manualEntry struct {
	name    string
	data    []byte
	offset  uint32
	sectors uint32
}

// nameField builds a raw 24-byte name field without going through EncodeName.
func nameField(name string) []byte {
	field := make([]byte, NameFieldSize)
	copy(field, name)
	return field
}

// createManualV1 lays out a V1 directory and data stream byte by byte.
func createManualV1(t testing.TB, entries []manualEntry) (dir []byte, data []byte) {
	t.Helper()

	for _, e := range entries {
		var rec [8]byte
		binary.LittleEndian.PutUint32(rec[0:4], e.offset)
		binary.LittleEndian.PutUint32(rec[4:8], e.sectors)
		dir = append(dir, rec[:]...)
		dir = append(dir, nameField(e.name)...)

		end := int(e.offset+e.sectors) * SectorSize
		if len(data) < end {
			data = append(data, make([]byte, end-len(data))...)
		}
		copy(data[int(e.offset)*SectorSize:], e.data)
	}

	return dir, data
}

// createManualV2 lays out a combined V2 stream byte by byte.
func createManualV2(t testing.TB, entries []manualEntry) []byte {
	t.Helper()

	var data []byte
	data = append(data, "VER2"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(entries)))
	for _, e := range entries {
		data = binary.LittleEndian.AppendUint32(data, e.offset)
		data = binary.LittleEndian.AppendUint16(data, uint16(e.sectors))
		data = binary.LittleEndian.AppendUint16(data, 0)
		data = append(data, nameField(e.name)...)
	}

	for _, e := range entries {
		end := int(e.offset+e.sectors) * SectorSize
		if len(data) < end {
			data = append(data, make([]byte, end-len(data))...)
		}
		copy(data[int(e.offset)*SectorSize:], e.data)
	}

	return data
}

// virgoEntries is a two-entry layout with one sector per entry.
func virgoEntries() []manualEntry {
	return []manualEntry{
		{name: "VIRGO.DFF", data: []byte("Virgo-v1"), offset: 0, sectors: 1},
		{name: "LANDSTAL.DFF", data: []byte("Landstalker-v1"), offset: 1, sectors: 1},
	}
}

// openVirgoV1 opens the two-entry V1 layout.
func openVirgoV1(t testing.TB) *Archive {
	t.Helper()

	dir, data := createManualV1(t, virgoEntries())
	a, err := OpenV1(bytes.NewReader(dir), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenV1: %v", err)
	}

	return a
}

// bytesInput returns an Input backed by an in-memory payload.
func bytesInput(name string, data []byte) Input {
	return Input{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// padded returns data zero-padded to a whole number of sectors.
func padded(data []byte) []byte {
	out := make([]byte, BytesToSectors(uint64(len(data)))*SectorSize)
	copy(out, data)
	return out
}
