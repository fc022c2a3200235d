// Package sfs implements a small inode-based file system layered over a
// fixed-size block device: byte-exact on-disk layout, an inode engine
// with direct/indirect pointers, and a free-block bitmap rebuilt at
// mount time.
//
// The package is strictly single-threaded and non-reentrant: no method
// on FileSystem may be called concurrently with another, and no method
// blocks or spawns goroutines. Concurrency, if any is needed, belongs to
// the caller (see cmd/sfsctl for the one place this repository needs it,
// at the shell/process-lifecycle layer, kept entirely outside this
// package).
package sfs

import (
	"github.com/chzyer/logex"
	"github.com/chzyer/sfs/internal/bitmap"
	"github.com/chzyer/sfs/internal/blockdev"
)

// FileSystem is a mounted filesystem: the owning handle every operation
// is a method of, rather than package-global mount state. The "at most
// one mount" rule is enforced by consulting the underlying Device's own
// mount counter.
type FileSystem struct {
	dev         blockdev.Device
	blocks      int
	inodeBlocks int
	inodes      int
	bmap        *bitmap.Bitmap
}

// Format initializes dev with a fresh superblock and an empty inode
// table, zeroing every other block. It fails if dev is already mounted.
// Formatting never mounts the filesystem.
func Format(dev blockdev.Device) (bool, error) {
	if dev.Mounted() {
		return false, nil
	}

	inodeBlocks := ceilDiv10(dev.Size())
	sb := &Superblock{
		MagicNumber: MagicNumber,
		Blocks:      uint32(dev.Size()),
		InodeBlocks: uint32(inodeBlocks),
		Inodes:      uint32(inodeBlocks * InodesPerBlock),
	}
	if err := dev.WriteBlock(0, sb.MarshalBinary()); err != nil {
		return false, logex.Trace(err)
	}

	zero := make([]byte, BlockSize)
	for i := 1; i < dev.Size(); i++ {
		if err := dev.WriteBlock(i, zero); err != nil {
			return false, logex.Trace(err)
		}
	}
	return true, nil
}

// Mount validates dev's superblock and, if valid, installs it as a
// mounted filesystem: the disk's mount counter is incremented and the
// free-block bitmap is reconstructed by walking every valid inode. It
// fails without mutating any state if dev is already mounted or the
// superblock is inconsistent.
func Mount(dev blockdev.Device) (*FileSystem, error) {
	if dev.Mounted() {
		return nil, nil
	}

	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(0, buf); err != nil {
		return nil, logex.Trace(err)
	}
	var sb Superblock
	if err := sb.UnmarshalBinary(buf); err != nil {
		return nil, logex.Trace(err)
	}

	if sb.MagicNumber != MagicNumber {
		return nil, nil
	}
	if int(sb.Blocks) != dev.Size() {
		return nil, nil
	}
	if int(sb.InodeBlocks) != ceilDiv10(dev.Size()) {
		return nil, nil
	}
	if int(sb.Inodes) != int(sb.InodeBlocks)*InodesPerBlock {
		return nil, nil
	}

	fs := &FileSystem{
		dev:         dev,
		blocks:      int(sb.Blocks),
		inodeBlocks: int(sb.InodeBlocks),
		inodes:      int(sb.Inodes),
	}

	if err := fs.reconstructBitmap(); err != nil {
		return nil, logex.Trace(err)
	}

	dev.Mount()
	return fs, nil
}

// reconstructBitmap starts with every block free, marks the superblock
// and inode table used, then walks every valid inode's direct/indirect
// pointers marking every referenced block used.
func (fs *FileSystem) reconstructBitmap() error {
	bm := bitmap.New(fs.blocks)
	bm.Reserve(0)
	for i := 1; i <= fs.inodeBlocks; i++ {
		bm.Reserve(i)
	}

	for i := 0; i < fs.inodes; i++ {
		inode, err := fs.readInodeRaw(i)
		if err != nil {
			return logex.Trace(err)
		}
		if inode.Valid == 0 {
			continue
		}
		for _, d := range inode.Direct {
			if d != 0 {
				bm.Reserve(int(d))
			}
		}
		if inode.Indirect != 0 {
			bm.Reserve(int(inode.Indirect))
			var ib indirectBlock
			if err := fs.readBlock(int(inode.Indirect), &ib); err != nil {
				return logex.Trace(err)
			}
			for _, p := range ib.Pointers {
				if p != 0 {
					bm.Reserve(int(p))
				}
			}
		}
	}

	fs.bmap = bm
	return nil
}

// Unmount releases the in-memory bitmap and decrements the device's
// mount counter. The bitmap is never persisted to disk.
func (fs *FileSystem) Unmount() {
	fs.dev.Unmount()
	fs.bmap = nil
}

// Blocks, InodeBlocks and Inodes expose the mounted superblock's copied
// fields, useful to callers (the shell's "mount" message, tests) without
// re-reading block 0.
func (fs *FileSystem) Blocks() int      { return fs.blocks }
func (fs *FileSystem) InodeBlocks() int { return fs.inodeBlocks }
func (fs *FileSystem) Inodes() int      { return fs.inodes }

func (fs *FileSystem) dataRegionStart() int { return 1 + fs.inodeBlocks }

func (fs *FileSystem) readBlock(index int, d interface{ UnmarshalBinary([]byte) error }) error {
	buf := make([]byte, BlockSize)
	if err := fs.dev.ReadBlock(index, buf); err != nil {
		return logex.Trace(err)
	}
	return d.UnmarshalBinary(buf)
}
