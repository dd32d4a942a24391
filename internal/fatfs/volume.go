package fatfs

import (
	"encoding/binary"
	"time"

	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ferrors"
	"github.com/lkc-technologies/fwact/internal/ifaces"
)

// device windows a BlockCache starting at offsetBlocks, presenting it as a
// fixed-size block device the way a real FAT driver expects: ReadBlocks,
// WriteBlocks, EraseSectors, Size and Mode, keyed off a start block plus a
// block count, mirroring the BlockDevice-shaped contract every soypat/fat
// consumer satisfies (see BytesBlocks in the pack's own soypat/fat test
// fixture).
type device struct {
	out          ifaces.BlockCache
	offsetBlocks int64
	sizeBlocks   int64
}

func (d *device) ReadBlocks(dst []byte, startBlock int64) (int, error) {
	off := (d.offsetBlocks + startBlock) * constants.BlockSize
	return d.out.ReadAt(dst, off)
}

func (d *device) WriteBlocks(data []byte, startBlock int64) (int, error) {
	off := (d.offsetBlocks + startBlock) * constants.BlockSize
	return d.out.WriteAt(data, off, false)
}

func (d *device) EraseSectors(startBlock, numBlocks int64) error {
	off := (d.offsetBlocks + startBlock) * constants.BlockSize
	return d.out.Trim(off, numBlocks*constants.BlockSize, true)
}

func (d *device) Size() int64 { return d.sizeBlocks * constants.BlockSize }
func (d *device) Mode() uint8 { return 3 }

// unboundedBlocks stands in for a partition's block count on every
// operation except fat_mkfs, which is the only action argv that carries
// one. The mounted volume's own BPB governs its real extent; this upper
// bound only keeps device.Size() from looking truncated to the driver.
const unboundedBlocks = 1 << 40

// volume is an opened FAT32 filesystem: the BPB fields needed to locate
// the FAT tables, the root directory cluster and the data area, read back
// from the boot sector rather than assumed, so a volume this package
// mounted stays self-describing the same way a real one would.
type volume struct {
	dev             *device
	fatSectors      int64
	dataStartSector int64
	totalSectors    int64
}

func mount(dev *device) (*volume, error) {
	boot := make([]byte, bytesPerSector)
	if _, err := dev.ReadBlocks(boot, 0); err != nil {
		return nil, ferrors.WrapIO("fat", err)
	}
	if boot[510] != 0x55 || boot[511] != 0xAA {
		return nil, ferrors.New(ferrors.KindCorruptState, "fat: missing boot sector signature")
	}
	rsvd := int64(binary.LittleEndian.Uint16(boot[14:16]))
	nFATs := int64(boot[16])
	totalSectors := int64(binary.LittleEndian.Uint32(boot[32:36]))
	fatSz := int64(binary.LittleEndian.Uint32(boot[36:40]))

	return &volume{
		dev:             dev,
		fatSectors:      fatSz,
		dataStartSector: rsvd + nFATs*fatSz,
		totalSectors:    totalSectors,
	}, nil
}

// computeFATSectors finds the smallest FAT size (in sectors) big enough to
// hold one entry per cluster in the data area it itself carves out,
// iterating to a fixed point since growing the FAT shrinks the data area
// it describes.
func computeFATSectors(totalSectors int64) int64 {
	fatSz := int64(1)
	for i := 0; i < 32; i++ {
		dataSectors := totalSectors - reservedSectors - numFATs*fatSz
		if dataSectors < 0 {
			dataSectors = 0
		}
		clusters := dataSectors/sectorsPerCluster + 2
		neededSectors := (clusters*4 + bytesPerSector - 1) / bytesPerSector
		if neededSectors <= fatSz {
			return fatSz
		}
		fatSz = neededSectors
	}
	return fatSz
}

// format writes a fresh FAT32 boot sector, FSInfo sector, both FAT copies
// and a zeroed root directory cluster into dev, then mounts it.
func format(dev *device, countBlocks int64) (*volume, error) {
	const minVolumeBlocks = reservedSectors + numFATs + 4
	if countBlocks < minVolumeBlocks {
		return nil, ferrors.NewAction("fat_mkfs", ferrors.KindDomain, "volume too small for FAT32")
	}

	fatSz := computeFATSectors(countBlocks)
	dataStart := reservedSectors + numFATs*fatSz
	totalClusters := (countBlocks-dataStart)/sectorsPerCluster + 2

	boot := make([]byte, bytesPerSector)
	boot[0], boot[1], boot[2] = 0xEB, 0x58, 0x90
	copy(boot[3:11], "MSWIN4.1")
	binary.LittleEndian.PutUint16(boot[11:13], bytesPerSector)
	boot[13] = sectorsPerCluster
	binary.LittleEndian.PutUint16(boot[14:16], reservedSectors)
	boot[16] = numFATs
	boot[21] = 0xF8
	binary.LittleEndian.PutUint32(boot[32:36], uint32(countBlocks))
	binary.LittleEndian.PutUint32(boot[36:40], uint32(fatSz))
	binary.LittleEndian.PutUint32(boot[44:48], rootCluster)
	binary.LittleEndian.PutUint16(boot[48:50], 1) // FSInfo sector
	binary.LittleEndian.PutUint16(boot[50:52], 6) // backup boot sector
	boot[64] = 0x80
	boot[66] = 0x29
	binary.LittleEndian.PutUint32(boot[67:71], 0x12C56BF1)
	copy(boot[71:82], "NO NAME    ")
	copy(boot[82:90], "FAT32   ")
	boot[510], boot[511] = 0x55, 0xAA

	fsInfo := make([]byte, bytesPerSector)
	binary.LittleEndian.PutUint32(fsInfo[0:4], 0x41615252)
	binary.LittleEndian.PutUint32(fsInfo[484:488], 0x61417272)
	binary.LittleEndian.PutUint32(fsInfo[488:492], uint32(totalClusters-3))
	binary.LittleEndian.PutUint32(fsInfo[492:496], 3)
	fsInfo[510], fsInfo[511] = 0x55, 0xAA

	if _, err := dev.WriteBlocks(boot, 0); err != nil {
		return nil, ferrors.WrapIO("fat_mkfs", err)
	}
	if _, err := dev.WriteBlocks(fsInfo, 1); err != nil {
		return nil, ferrors.WrapIO("fat_mkfs", err)
	}
	if _, err := dev.WriteBlocks(boot, 6); err != nil {
		return nil, ferrors.WrapIO("fat_mkfs", err)
	}
	if _, err := dev.WriteBlocks(fsInfo, 7); err != nil {
		return nil, ferrors.WrapIO("fat_mkfs", err)
	}

	fat := make([]uint32, totalClusters)
	fat[0] = fatBoot0Value
	fat[1] = fatBoot1Value
	fat[rootCluster] = fatEOC

	vol := &volume{dev: dev, fatSectors: fatSz, dataStartSector: dataStart, totalSectors: countBlocks}
	if err := vol.writeFAT(fat); err != nil {
		return nil, err
	}
	if err := vol.writeCluster(rootCluster, make([]byte, bytesPerSector*sectorsPerCluster)); err != nil {
		return nil, err
	}
	return vol, nil
}

func (v *volume) clusterToSector(cluster uint32) int64 {
	return v.dataStartSector + (int64(cluster)-2)*sectorsPerCluster
}

func (v *volume) numClusters() int64 {
	return (v.totalSectors-v.dataStartSector)/sectorsPerCluster + 2
}

func (v *volume) readFAT() ([]uint32, error) {
	raw := make([]byte, v.fatSectors*bytesPerSector)
	if _, err := v.dev.ReadBlocks(raw, reservedSectors); err != nil {
		return nil, ferrors.WrapIO("fat", err)
	}
	n := v.numClusters()
	entries := make([]uint32, n)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint32(raw[i*4:]) & fatEntryMask
	}
	return entries, nil
}

func (v *volume) writeFAT(entries []uint32) error {
	raw := make([]byte, v.fatSectors*bytesPerSector)
	for i, e := range entries {
		binary.LittleEndian.PutUint32(raw[i*4:], e&fatEntryMask)
	}
	if _, err := v.dev.WriteBlocks(raw, reservedSectors); err != nil {
		return ferrors.WrapIO("fat", err)
	}
	if _, err := v.dev.WriteBlocks(raw, reservedSectors+v.fatSectors); err != nil {
		return ferrors.WrapIO("fat", err)
	}
	return nil
}

func (v *volume) readCluster(cluster uint32) ([]byte, error) {
	buf := make([]byte, bytesPerSector*sectorsPerCluster)
	if _, err := v.dev.ReadBlocks(buf, v.clusterToSector(cluster)); err != nil {
		return nil, ferrors.WrapIO("fat", err)
	}
	return buf, nil
}

func (v *volume) writeCluster(cluster uint32, data []byte) error {
	if _, err := v.dev.WriteBlocks(data, v.clusterToSector(cluster)); err != nil {
		return ferrors.WrapIO("fat", err)
	}
	return nil
}

// allocChain reserves n free clusters, chains them in FAT order and
// zeroes their backing sectors, returning the chain head first.
func (v *volume) allocChain(n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	fat, err := v.readFAT()
	if err != nil {
		return nil, err
	}
	var free []uint32
	for i := 2; i < len(fat) && len(free) < n; i++ {
		if fat[i] == fatFree {
			free = append(free, uint32(i))
		}
	}
	if len(free) < n {
		return nil, ferrors.NewAction("fat", ferrors.KindIO, "fat volume out of space")
	}
	for i, c := range free {
		if i+1 < len(free) {
			fat[c] = free[i+1]
		} else {
			fat[c] = fatEOC
		}
	}
	if err := v.writeFAT(fat); err != nil {
		return nil, err
	}
	zero := make([]byte, bytesPerSector*sectorsPerCluster)
	for _, c := range free {
		if err := v.writeCluster(c, zero); err != nil {
			return nil, err
		}
	}
	return free, nil
}

// freeChain releases every cluster in the chain starting at start. A
// start of 0 names an empty file and is a no-op.
func (v *volume) freeChain(start uint32) error {
	if start == 0 {
		return nil
	}
	fat, err := v.readFAT()
	if err != nil {
		return err
	}
	c := start
	for c != 0 && !isEOC(c) && int(c) < len(fat) {
		next := fat[c]
		fat[c] = fatFree
		c = next
	}
	return v.writeFAT(fat)
}

// readChainData reads size bytes starting at the first cluster of a
// chain, following FAT links as needed.
func (v *volume) readChainData(start uint32, size int64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	fat, err := v.readFAT()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, size)
	clusterBytes := int64(bytesPerSector * sectorsPerCluster)
	c := start
	for int64(len(out)) < size && c != 0 && !isEOC(c) {
		data, err := v.readCluster(c)
		if err != nil {
			return nil, err
		}
		take := size - int64(len(out))
		if take > clusterBytes {
			take = clusterBytes
		}
		out = append(out, data[:take]...)
		if int(c) >= len(fat) {
			break
		}
		c = fat[c]
	}
	return out, nil
}

// writeChainData allocates a fresh cluster chain sized to hold data and
// writes it, returning the chain's head cluster (0 for an empty file).
func (v *volume) writeChainData(data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	clusterBytes := bytesPerSector * sectorsPerCluster
	n := (len(data) + clusterBytes - 1) / clusterBytes
	clusters, err := v.allocChain(n)
	if err != nil {
		return 0, err
	}
	for i, c := range clusters {
		start := i * clusterBytes
		end := start + clusterBytes
		var chunk []byte
		if end > len(data) {
			chunk = make([]byte, clusterBytes)
			copy(chunk, data[start:])
		} else {
			chunk = data[start:end]
		}
		if err := v.writeCluster(c, chunk); err != nil {
			return 0, err
		}
	}
	return clusters[0], nil
}

// rootSlot locates an entry by its short name within the root directory,
// scanning up to maxRootEntries and stopping at the first unused (0x00)
// slot, the same end-of-directory convention real FAT uses.
func (v *volume) rootSlot(name string) (data []byte, slot int, entry dirEntry, found bool, err error) {
	data, err = v.readCluster(rootCluster)
	if err != nil {
		return nil, 0, dirEntry{}, false, err
	}
	wantName, wantExt := shortName(name)
	for i := 0; i < maxRootEntries; i++ {
		off := i * dirEntrySize
		if data[off] == 0x00 {
			break
		}
		if data[off] == 0xE5 {
			continue
		}
		e := decodeDirEntry(data[off : off+dirEntrySize])
		if e.Name == wantName && e.Ext == wantExt {
			return data, i, e, true, nil
		}
	}
	return data, -1, dirEntry{}, false, nil
}

func (v *volume) rootFreeSlot(data []byte) (int, bool) {
	for i := 0; i < maxRootEntries; i++ {
		off := i * dirEntrySize
		if data[off] == 0x00 || data[off] == 0xE5 {
			return i, true
		}
	}
	return -1, false
}

func (v *volume) addRootEntry(name string, attr byte, size uint32, firstClus uint32) error {
	data, err := v.readCluster(rootCluster)
	if err != nil {
		return err
	}
	slot, ok := v.rootFreeSlot(data)
	if !ok {
		return ferrors.NewAction("fat", ferrors.KindIO, "fat root directory is full")
	}
	nm, ext := shortName(name)
	now := time.Now()
	date, clock := fatDateTime(now)
	e := dirEntry{
		Name: nm, Ext: ext, Attr: attr,
		FirstClus:  firstClus,
		Size:       size,
		CreateDate: date, CreateTime: clock,
		WriteDate: date, WriteTime: clock,
	}
	off := slot * dirEntrySize
	encodeDirEntry(data[off:off+dirEntrySize], e)
	return v.writeCluster(rootCluster, data)
}

func (v *volume) removeRootEntry(name string) (dirEntry, bool, error) {
	data, slot, e, found, err := v.rootSlot(name)
	if err != nil || !found {
		return dirEntry{}, found, err
	}
	data[slot*dirEntrySize] = 0xE5
	if err := v.writeCluster(rootCluster, data); err != nil {
		return dirEntry{}, true, err
	}
	return e, true, nil
}

func (v *volume) updateRootEntryAttr(name string, attr byte) error {
	data, slot, e, found, err := v.rootSlot(name)
	if err != nil {
		return err
	}
	if !found {
		return ferrors.NewAction("fat_attrib", ferrors.KindReference, "path not found")
	}
	e.Attr |= attr
	off := slot * dirEntrySize
	encodeDirEntry(data[off:off+dirEntrySize], e)
	return v.writeCluster(rootCluster, data)
}

func (v *volume) touchRootEntry(name string) error {
	data, slot, e, found, err := v.rootSlot(name)
	if err != nil || !found {
		return err
	}
	date, clock := fatDateTime(time.Now())
	e.WriteDate, e.WriteTime = date, clock
	off := slot * dirEntrySize
	encodeDirEntry(data[off:off+dirEntrySize], e)
	return v.writeCluster(rootCluster, data)
}

func (v *volume) setVolumeLabel(label string) error {
	boot := make([]byte, bytesPerSector)
	if _, err := v.dev.ReadBlocks(boot, 0); err != nil {
		return ferrors.WrapIO("fat_setlabel", err)
	}
	for i := 71; i < 82; i++ {
		boot[i] = ' '
	}
	upper := label
	if len(upper) > 11 {
		upper = upper[:11]
	}
	copy(boot[71:82], upper)
	if _, err := v.dev.WriteBlocks(boot, 0); err != nil {
		return ferrors.WrapIO("fat_setlabel", err)
	}
	if _, err := v.dev.WriteBlocks(boot, 6); err != nil {
		return ferrors.WrapIO("fat_setlabel", err)
	}
	return nil
}

func (v *volume) mkdirEntry(name string) error {
	clusters, err := v.allocChain(1)
	if err != nil {
		return err
	}
	self := clusters[0]

	dot, dotdot := dirEntry{Attr: attrDirectory, FirstClus: self}, dirEntry{Attr: attrDirectory, FirstClus: rootCluster}
	copy(dot.Name[:], ".       ")
	copy(dot.Ext[:], "   ")
	copy(dotdot.Name[:], "..      ")
	copy(dotdot.Ext[:], "   ")

	data := make([]byte, bytesPerSector*sectorsPerCluster)
	encodeDirEntry(data[0:dirEntrySize], dot)
	encodeDirEntry(data[dirEntrySize:2*dirEntrySize], dotdot)
	if err := v.writeCluster(self, data); err != nil {
		return err
	}
	return v.addRootEntry(name, attrDirectory, 0, self)
}
