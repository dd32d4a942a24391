package fatfs

import (
	"encoding/binary"
	"strings"
	"time"
)

// On-disk layout constants for the FAT32 volumes this package formats and
// reads. One sector equals one BlockSize-sized cluster, which keeps the
// cluster/sector arithmetic a single multiply instead of a general
// allocation-unit calculation; real mkfs.fat tools use larger clusters for
// throughput, but a dispatcher action applies a whole resource in one pass
// rather than doing random small writes, so that tradeoff doesn't apply
// here.
const (
	bytesPerSector    = 512
	sectorsPerCluster = 1
	reservedSectors   = 32
	numFATs           = 2
	rootCluster       = 2
	dirEntrySize      = 32
	// maxRootEntries bounds the root directory to its own single cluster
	// rather than growing it across a chain, the same way a FAT12/16 root
	// has a fixed entry count. A firmware staging partition holds a
	// handful of files, not thousands, so this is a deliberate, documented
	// capacity limit rather than a correctness gap.
	maxRootEntries = bytesPerSector / dirEntrySize
)

// FAT32 special cluster values (28 bits significant).
const (
	fatEntryMask   = 0x0FFFFFFF
	fatFree        = 0x00000000
	fatEOC         = 0x0FFFFFFF
	fatReservedLo  = 0x0FFFFFF8
	fatBoot0Value  = 0x0FFFFFF8
	fatBoot1Value  = 0x0FFFFFFF
)

// Directory entry attribute bits (FAT spec).
const (
	attrReadOnly  = 0x01
	attrHidden    = 0x02
	attrSystem    = 0x04
	attrVolumeID  = 0x08
	attrDirectory = 0x10
	attrArchive   = 0x20
)

func isEOC(entry uint32) bool {
	return entry&fatEntryMask >= fatReservedLo
}

// shortName splits path into an uppercased, space-padded 8.3 name/ext
// pair. Only the final path component is used: this driver keeps a flat
// root directory, so any separators in an action's path argument select a
// basename rather than naming real subdirectories.
func shortName(path string) (name [8]byte, ext [3]byte) {
	for i := range name {
		name[i] = ' '
	}
	for i := range ext {
		ext[i] = ' '
	}

	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.ToUpper(base)

	stem, extension := base, ""
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		stem, extension = base[:idx], base[idx+1:]
	}
	if len(stem) > 8 {
		stem = stem[:8]
	}
	if len(extension) > 3 {
		extension = extension[:3]
	}
	copy(name[:], stem)
	copy(ext[:], extension)
	return name, ext
}

// dirEntry is the decoded form of one 32-byte FAT directory entry.
type dirEntry struct {
	Name       [8]byte
	Ext        [3]byte
	Attr       byte
	FirstClus  uint32
	Size       uint32
	CreateDate uint16
	CreateTime uint16
	WriteDate  uint16
	WriteTime  uint16
}

func decodeDirEntry(b []byte) dirEntry {
	_ = b[31]
	var e dirEntry
	copy(e.Name[:], b[0:8])
	copy(e.Ext[:], b[8:11])
	e.Attr = b[11]
	e.CreateTime = binary.LittleEndian.Uint16(b[14:16])
	e.CreateDate = binary.LittleEndian.Uint16(b[16:18])
	hi := binary.LittleEndian.Uint16(b[20:22])
	e.WriteTime = binary.LittleEndian.Uint16(b[22:24])
	e.WriteDate = binary.LittleEndian.Uint16(b[24:26])
	lo := binary.LittleEndian.Uint16(b[26:28])
	e.FirstClus = uint32(hi)<<16 | uint32(lo)
	e.Size = binary.LittleEndian.Uint32(b[28:32])
	return e
}

func encodeDirEntry(b []byte, e dirEntry) {
	_ = b[31]
	for i := range b {
		b[i] = 0
	}
	copy(b[0:8], e.Name[:])
	copy(b[8:11], e.Ext[:])
	b[11] = e.Attr
	binary.LittleEndian.PutUint16(b[14:16], e.CreateTime)
	binary.LittleEndian.PutUint16(b[16:18], e.CreateDate)
	binary.LittleEndian.PutUint16(b[20:22], uint16(e.FirstClus>>16))
	binary.LittleEndian.PutUint16(b[22:24], e.WriteTime)
	binary.LittleEndian.PutUint16(b[24:26], e.WriteDate)
	binary.LittleEndian.PutUint16(b[26:28], uint16(e.FirstClus))
	binary.LittleEndian.PutUint32(b[28:32], e.Size)
}

// fatDateTime packs t into the FAT directory entry date/time fields.
func fatDateTime(t time.Time) (date, clock uint16) {
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	date = uint16(year<<9 | int(t.Month())<<5 | t.Day())
	clock = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	return date, clock
}
