// Package fatfs implements a small, self-contained FAT32 engine over the
// dispatcher's block cache and narrows it down to the handful of
// operations the fat_* actions need: format, open-for-write, remove,
// rename, copy, mkdir, set-label, touch and set-attribute. It keeps a
// flat root directory (no subdirectory traversal) and short 8.3 names,
// the scope a firmware staging partition actually needs.
package fatfs

import (
	"github.com/lkc-technologies/fwact/internal/ferrors"
	"github.com/lkc-technologies/fwact/internal/ifaces"
)

// FS is a mounted FAT volume windowed within a BlockCache.
type FS struct {
	vol *volume
}

// Mkfs formats countBlocks blocks of out starting at offsetBlocks as a
// fresh FAT32 volume and mounts it.
func Mkfs(out ifaces.BlockCache, offsetBlocks, countBlocks int64) (*FS, error) {
	dev := &device{out: out, offsetBlocks: offsetBlocks, sizeBlocks: countBlocks}
	vol, err := format(dev, countBlocks)
	if err != nil {
		return nil, err
	}
	return &FS{vol: vol}, nil
}

// Open mounts the existing FAT32 volume windowed at offsetBlocks.
func Open(out ifaces.BlockCache, offsetBlocks int64) (*FS, error) {
	dev := &device{out: out, offsetBlocks: offsetBlocks, sizeBlocks: unboundedBlocks}
	vol, err := mount(dev)
	if err != nil {
		return nil, err
	}
	return &FS{vol: vol}, nil
}

// Exists reports whether path names an existing file or directory entry
// in the root directory.
func (f *FS) Exists(path string) bool {
	_, _, _, found, err := f.vol.rootSlot(path)
	return err == nil && found
}

// Remove deletes path. If path does not exist, Remove is a no-op unless
// mustExist is set.
func (f *FS) Remove(path string, mustExist bool) error {
	e, found, err := f.vol.removeRootEntry(path)
	if err != nil {
		return ferrors.WrapIO("fat_rm", err)
	}
	if !found {
		if mustExist {
			return ferrors.NewAction("fat_rm", ferrors.KindReference, "path not found")
		}
		return nil
	}
	if err := f.vol.freeChain(e.FirstClus); err != nil {
		return ferrors.WrapIO("fat_rm", err)
	}
	return nil
}

// Rename moves src to dst. If dst exists, Rename fails unless force is set.
func (f *FS) Rename(src, dst string, force bool) error {
	if !force && f.Exists(dst) {
		return ferrors.NewAction("fat_mv", ferrors.KindReference, "destination already exists")
	}
	_, _, srcEntry, found, err := f.vol.rootSlot(src)
	if err != nil {
		return ferrors.WrapIO("fat_mv", err)
	}
	if !found {
		return ferrors.NewAction("fat_mv", ferrors.KindReference, "source not found")
	}
	if force {
		if dstEntry, dstFound, err := f.vol.removeRootEntry(dst); err == nil && dstFound {
			_ = f.vol.freeChain(dstEntry.FirstClus)
		}
	}
	if _, found, _ := f.vol.removeRootEntry(src); !found {
		return ferrors.NewAction("fat_mv", ferrors.KindReference, "source not found")
	}
	if err := f.vol.addRootEntry(dst, srcEntry.Attr, srcEntry.Size, srcEntry.FirstClus); err != nil {
		return ferrors.WrapIO("fat_mv", err)
	}
	return nil
}

// Copy duplicates src to dst, overwriting dst if present. The duplicate
// gets its own cluster chain so future writes to either file are
// independent.
func (f *FS) Copy(src, dst string) error {
	_, _, srcEntry, found, err := f.vol.rootSlot(src)
	if err != nil {
		return ferrors.WrapIO("fat_cp", err)
	}
	if !found {
		return ferrors.NewAction("fat_cp", ferrors.KindReference, "source not found")
	}
	data, err := f.vol.readChainData(srcEntry.FirstClus, int64(srcEntry.Size))
	if err != nil {
		return ferrors.WrapIO("fat_cp", err)
	}
	if dstEntry, dstFound, err := f.vol.removeRootEntry(dst); err == nil && dstFound {
		_ = f.vol.freeChain(dstEntry.FirstClus)
	}
	newHead, err := f.vol.writeChainData(data)
	if err != nil {
		return ferrors.WrapIO("fat_cp", err)
	}
	if err := f.vol.addRootEntry(dst, srcEntry.Attr, uint32(len(data)), newHead); err != nil {
		return ferrors.WrapIO("fat_cp", err)
	}
	return nil
}

// Mkdir creates path as a directory entry with its own single-cluster
// directory body containing "." and "..".
func (f *FS) Mkdir(path string) error {
	if f.Exists(path) {
		return ferrors.NewAction("fat_mkdir", ferrors.KindReference, "path already exists")
	}
	if err := f.vol.mkdirEntry(path); err != nil {
		return ferrors.WrapIO("fat_mkdir", err)
	}
	return nil
}

// SetLabel sets the volume label recorded in the boot sector.
func (f *FS) SetLabel(label string) error {
	return f.vol.setVolumeLabel(label)
}

// Touch creates path as an empty file if absent; if present, it updates
// the entry's write timestamp and leaves its contents untouched.
func (f *FS) Touch(path string) error {
	if f.Exists(path) {
		if err := f.vol.touchRootEntry(path); err != nil {
			return ferrors.WrapIO("fat_touch", err)
		}
		return nil
	}
	if err := f.vol.addRootEntry(path, attrArchive, 0, 0); err != nil {
		return ferrors.WrapIO("fat_touch", err)
	}
	return nil
}

// Attrib restricts flags to a DOS attribute character set and ORs them
// into path's existing attribute byte.
func (f *FS) Attrib(path, flags string) error {
	var attr byte
	for _, r := range flags {
		switch r {
		case 'S', 's':
			attr |= attrSystem
		case 'H', 'h':
			attr |= attrHidden
		case 'R', 'r':
			attr |= attrReadOnly
		}
	}
	if err := f.vol.updateRootEntryAttr(path, attr); err != nil {
		return ferrors.WrapIO("fat_attrib", err)
	}
	return nil
}

// File is a handle opened for write-with-hash to stream into. Writes
// accumulate in memory at their logical offsets and are flushed to a
// fresh cluster chain and root directory entry on Close, since the
// dispatcher's write actions issue a single sequential-with-holes pass
// rather than random reopens.
type File struct {
	fs   *FS
	path string
	buf  []byte
}

// CreateForWrite truncates any existing file at path (tolerant of
// absence) and opens a fresh one for writing.
func (f *FS) CreateForWrite(path string) (*File, error) {
	if e, found, err := f.vol.removeRootEntry(path); err == nil && found {
		_ = f.vol.freeChain(e.FirstClus)
	}
	return &File{fs: f, path: path}, nil
}

// WriteAt writes p at the file's logical offset off, growing the
// in-memory buffer as needed.
func (fh *File) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(fh.buf)) {
		grown := make([]byte, end)
		copy(grown, fh.buf)
		fh.buf = grown
	}
	copy(fh.buf[off:], p)
	return len(p), nil
}

// Truncate extends or shrinks the file's in-memory buffer to size bytes.
func (fh *File) Truncate(size int64) error {
	switch {
	case size == int64(len(fh.buf)):
	case size < int64(len(fh.buf)):
		fh.buf = fh.buf[:size]
	default:
		grown := make([]byte, size)
		copy(grown, fh.buf)
		fh.buf = grown
	}
	return nil
}

// Close flushes the buffered contents to a fresh cluster chain and adds
// (or replaces) the file's root directory entry.
func (fh *File) Close() error {
	head, err := fh.fs.vol.writeChainData(fh.buf)
	if err != nil {
		return ferrors.WrapIO("fat_write", err)
	}
	if e, found, err := fh.fs.vol.removeRootEntry(fh.path); err == nil && found {
		_ = fh.fs.vol.freeChain(e.FirstClus)
	}
	if err := fh.fs.vol.addRootEntry(fh.path, attrArchive, uint32(len(fh.buf)), head); err != nil {
		return ferrors.WrapIO("fat_write", err)
	}
	return nil
}
