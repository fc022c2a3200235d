package sfs

import (
	"github.com/chzyer/logex"
)

// allocateBlock hands out the lowest-indexed free block and zeroes its
// on-disk content, so later partial-block writes see defined bytes. It
// returns -1 (no error) when the device has no free blocks left.
func (fs *FileSystem) allocateBlock() (int, error) {
	idx := fs.bmap.Allocate()
	if idx == -1 {
		return -1, nil
	}
	if err := fs.dev.WriteBlock(idx, make([]byte, BlockSize)); err != nil {
		return -1, logex.Trace(err)
	}
	return idx, nil
}

func (fs *FileSystem) releaseBlock(i int) error {
	return logex.Trace(fs.bmap.Release(i))
}

// Create scans the inode table in ascending, block-major/slot-minor
// order for the first invalid slot, rewrites it as an empty valid inode,
// and returns its inumber. It returns -1 (with a nil error) when every
// inode slot is in use.
func (fs *FileSystem) Create() (int, error) {
	buf := make([]byte, BlockSize)
	for block := 1; block <= fs.inodeBlocks; block++ {
		if err := fs.dev.ReadBlock(block, buf); err != nil {
			return 0, logex.Trace(err)
		}
		for slot := 0; slot < InodesPerBlock; slot++ {
			var rec InodeRecord
			off := slot * InodeSize
			if err := rec.UnmarshalBinary(buf[off : off+InodeSize]); err != nil {
				return 0, logex.Trace(err)
			}
			if rec.Valid != 0 {
				continue
			}
			fresh := InodeRecord{Valid: 1}
			copy(buf[off:off+InodeSize], fresh.MarshalBinary())
			if err := fs.dev.WriteBlock(block, buf); err != nil {
				return 0, logex.Trace(err)
			}
			return (block-1)*InodesPerBlock + slot, nil
		}
	}
	return -1, nil
}

// Remove releases every block reachable from inumber's inode and marks
// the inode invalid. It fails if inumber is out of range or already
// invalid.
//
// The indirect block's contents are read before it or any block it
// points to is released: reading it after release risks the block
// having already been reallocated and overwritten by the time it's read.
func (fs *FileSystem) Remove(inumber int) (bool, error) {
	inode, err := fs.loadInode(inumber)
	if err != nil {
		if logex.Equal(err, ErrInumberOutOfRange) {
			return false, nil
		}
		return false, logex.Trace(err)
	}
	if inode.Valid == 0 {
		return false, nil
	}

	for i, d := range inode.Direct {
		if d == 0 {
			continue
		}
		if err := fs.releaseBlock(int(d)); err != nil {
			return false, logex.Trace(err)
		}
		inode.Direct[i] = 0
	}

	if inode.Indirect != 0 {
		var ib indirectBlock
		if err := fs.readBlock(int(inode.Indirect), &ib); err != nil {
			return false, logex.Trace(err)
		}
		for _, p := range ib.Pointers {
			if p == 0 {
				continue
			}
			if err := fs.releaseBlock(int(p)); err != nil {
				return false, logex.Trace(err)
			}
		}
		if err := fs.releaseBlock(int(inode.Indirect)); err != nil {
			return false, logex.Trace(err)
		}
		inode.Indirect = 0
	}

	inode.Valid = 0
	inode.Size = 0
	if err := fs.saveInode(inumber, inode); err != nil {
		return false, logex.Trace(err)
	}
	return true, nil
}

// Stat returns inumber's logical size, or -1 if inumber is out of range
// or invalid.
func (fs *FileSystem) Stat(inumber int) (int, error) {
	inode, err := fs.loadInode(inumber)
	if err != nil {
		if logex.Equal(err, ErrInumberOutOfRange) {
			return -1, nil
		}
		return -1, logex.Trace(err)
	}
	if inode.Valid == 0 {
		return -1, nil
	}
	return int(inode.Size), nil
}

// pointerForBlock returns the physical block index for logical block i
// of an inode, given its already-loaded indirect block (which may be the
// zero value if i < PointersPerInode).
func pointerForBlock(inode *InodeRecord, ib *indirectBlock, i int) uint32 {
	if i < PointersPerInode {
		return inode.Direct[i]
	}
	return ib.Pointers[i-PointersPerInode]
}

// Read copies up to length bytes starting at offset from inumber's data
// into buf, returning the number of bytes actually copied. It returns -1
// if inumber is out of range or invalid, or if offset is past the
// inode's current size.
func (fs *FileSystem) Read(inumber int, buf []byte, length, offset int) (int, error) {
	inode, err := fs.loadInode(inumber)
	if err != nil {
		if logex.Equal(err, ErrInumberOutOfRange) {
			return -1, nil
		}
		return -1, logex.Trace(err)
	}
	if inode.Valid == 0 {
		return -1, nil
	}
	size := int(inode.Size)
	if offset > size {
		return -1, nil
	}
	if length > size-offset {
		length = size - offset
	}
	if length <= 0 {
		return 0, nil
	}

	startBlock := offset / BlockSize
	endBlock := (offset + length) / BlockSize

	var ib indirectBlock
	if endBlock >= PointersPerInode && inode.Indirect != 0 {
		if err := fs.readBlock(int(inode.Indirect), &ib); err != nil {
			return -1, logex.Trace(err)
		}
	}

	read := 0
	blockBuf := make([]byte, BlockSize)
	for i := startBlock; i <= endBlock && read < length; i++ {
		start := 0
		end := BlockSize
		if i == startBlock {
			start = offset % BlockSize
		}
		if i == (offset+length)/BlockSize {
			end = (offset + length) % BlockSize
		}
		if end == 0 {
			end = BlockSize
		}
		if start >= end {
			continue
		}

		ptr := pointerForBlock(inode, &ib, i)
		if ptr == 0 {
			// A zero pointer inside the reported Size is treated as
			// zero bytes rather than undefined behavior.
			for j := start; j < end && read < length; j++ {
				buf[read] = 0
				read++
			}
			continue
		}
		if err := fs.dev.ReadBlock(int(ptr), blockBuf); err != nil {
			return -1, logex.Trace(err)
		}
		for j := start; j < end && read < length; j++ {
			buf[read] = blockBuf[j]
			read++
		}
	}
	return read, nil
}

// Write copies up to length bytes from data into inumber's data starting
// at offset, allocating direct and indirect blocks as needed, and
// returns the number of bytes actually written. It returns -1 if
// inumber is out of range or invalid, or if offset is past the inode's
// current size (writes may only extend contiguously). A write that runs
// out of free blocks returns a short count rather than -1, leaving the
// inode and its pointers internally consistent.
func (fs *FileSystem) Write(inumber int, data []byte, length, offset int) (int, error) {
	inode, err := fs.loadInode(inumber)
	if err != nil {
		if logex.Equal(err, ErrInumberOutOfRange) {
			return -1, nil
		}
		return -1, logex.Trace(err)
	}
	if inode.Valid == 0 {
		return -1, nil
	}
	size := int(inode.Size)
	if offset > size {
		return -1, nil
	}
	if length > MaxFileSize-offset {
		length = MaxFileSize - offset
	}
	if length < 0 {
		length = 0
	}

	var (
		ib               indirectBlock
		indirectLoaded   bool
		indirectModified bool
		inodeModified    bool
		written          int
	)

	loadIndirect := func() error {
		if indirectLoaded {
			return nil
		}
		if inode.Indirect != 0 {
			if err := fs.readBlock(int(inode.Indirect), &ib); err != nil {
				return logex.Trace(err)
			}
		}
		indirectLoaded = true
		return nil
	}

	for block := offset / BlockSize; written < length && block < PointersPerInode+PointersPerBlock; block++ {
		var ptr uint32
		if block < PointersPerInode {
			ptr = inode.Direct[block]
			if ptr == 0 {
				idx, err := fs.allocateBlock()
				if err != nil {
					return written, logex.Trace(err)
				}
				if idx == -1 {
					goto finalize
				}
				ptr = uint32(idx)
				inode.Direct[block] = ptr
				inodeModified = true
			}
		} else {
			if inode.Indirect == 0 {
				idx, err := fs.allocateBlock()
				if err != nil {
					return written, logex.Trace(err)
				}
				if idx == -1 {
					goto finalize
				}
				inode.Indirect = uint32(idx)
				inodeModified = true
				indirectLoaded = true // freshly allocated: all zero
			} else if err := loadIndirect(); err != nil {
				return written, logex.Trace(err)
			}

			slot := block - PointersPerInode
			ptr = ib.Pointers[slot]
			if ptr == 0 {
				idx, err := fs.allocateBlock()
				if err != nil {
					return written, logex.Trace(err)
				}
				if idx == -1 {
					goto finalize
				}
				ptr = uint32(idx)
				ib.Pointers[slot] = ptr
				indirectModified = true
			}
		}

		{
			blockOffset := 0
			if block == offset/BlockSize {
				blockOffset = offset % BlockSize
			}
			n := BlockSize - blockOffset
			if remaining := length - written; n > remaining {
				n = remaining
			}

			blockBuf := make([]byte, BlockSize)
			partial := blockOffset != 0 || n != BlockSize
			if partial {
				if err := fs.dev.ReadBlock(int(ptr), blockBuf); err != nil {
					return written, logex.Trace(err)
				}
			}
			copy(blockBuf[blockOffset:blockOffset+n], data[written:written+n])
			if err := fs.dev.WriteBlock(int(ptr), blockBuf); err != nil {
				return written, logex.Trace(err)
			}
			written += n
		}
	}

finalize:
	if int(inode.Size) < offset+written {
		inode.Size = uint32(offset + written)
		inodeModified = true
	}
	if inodeModified {
		if err := fs.saveInode(inumber, inode); err != nil {
			return written, logex.Trace(err)
		}
	}
	if indirectModified {
		if err := fs.dev.WriteBlock(int(inode.Indirect), ib.MarshalBinary()); err != nil {
			return written, logex.Trace(err)
		}
	}
	return written, nil
}
