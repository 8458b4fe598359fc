// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

// SectorsToBytes converts a sector count to bytes.
func SectorsToBytes(n uint64) uint64 {
	return n * SectorSize
}

// BytesToSectors converts a byte count to sectors, rounding a partial sector up.
func BytesToSectors(n uint64) uint64 {
	sectors := n / SectorSize
	if n%SectorSize != 0 {
		sectors++
	}

	return sectors
}

// PaddingLen returns the zero bytes needed after actual bytes to fill sectors.
// It saturates at zero.
func PaddingLen(sectors, actual uint64) uint64 {
	total := SectorsToBytes(sectors)
	if actual >= total {
		return 0
	}

	return total - actual
}

// v2DataStart returns the first data sector of a V2 archive with count slots.
func v2DataStart(count uint64) uint64 {
	return BytesToSectors(v2HeaderSize + recordSize*count)
}
