// Package mbrfmt encodes a classic MS-DOS partition table into the
// 512-byte sector a boot ROM expects. No library in the example pack
// addresses this format; it is narrow and fixed enough (446 bytes of
// unused bootstrap code, four 16-byte entries, a two-byte signature)
// that hand-rolling the encoder on the standard library is the right
// call — see DESIGN.md.
package mbrfmt

import "encoding/binary"

// SectorSize is the size of the rendered MBR image.
const SectorSize = 512

const (
	partitionTableOffset = 446
	partitionEntrySize   = 16
	numPartitions        = 4
	signatureOffset      = 510
)

// Partition is one of the four primary partition table entries. An empty
// Partition (zero Type) renders as sixteen zero bytes, matching an unused
// slot.
type Partition struct {
	Bootable   bool
	Type       uint8
	StartLBA   uint32
	NumSectors uint32
}

// Encode renders exactly four partitions into a 512-byte MBR sector:
// 446 bytes of zeroed bootstrap code, the four partition entries at
// offset 446, and the 0x55AA boot signature at offset 510.
func Encode(partitions [numPartitions]Partition) [SectorSize]byte {
	var sector [SectorSize]byte

	for i, p := range partitions {
		entry := sector[partitionTableOffset+i*partitionEntrySize:]
		if p.Type == 0 {
			continue
		}
		if p.Bootable {
			entry[0] = 0x80
		}
		entry[4] = p.Type
		binary.LittleEndian.PutUint32(entry[8:12], p.StartLBA)
		binary.LittleEndian.PutUint32(entry[12:16], p.NumSectors)
	}

	sector[signatureOffset] = 0x55
	sector[signatureOffset+1] = 0xAA
	return sector
}
