package sfs

import "github.com/chzyer/logex"

// blockOf returns the inode table block containing inumber n and n's
// offset within that block.
func blockOf(n int) (block, slot int) {
	return 1 + n/InodesPerBlock, n % InodesPerBlock
}

// loadInode reads inode n's record, bounds-checked against fs.inodes.
// The Valid flag may be 0; that is not itself an error.
func (fs *FileSystem) loadInode(n int) (*InodeRecord, error) {
	if n < 0 || n >= fs.inodes {
		return nil, ErrInumberOutOfRange.Trace(n)
	}
	return fs.readInodeRaw(n)
}

// readInodeRaw loads inode n without a bounds check; used internally
// during bitmap reconstruction where n always ranges over [0, inodes).
func (fs *FileSystem) readInodeRaw(n int) (*InodeRecord, error) {
	block, slot := blockOf(n)
	buf := make([]byte, BlockSize)
	if err := fs.dev.ReadBlock(block, buf); err != nil {
		return nil, logex.Trace(err)
	}
	var rec InodeRecord
	if err := rec.UnmarshalBinary(buf[slot*InodeSize : (slot+1)*InodeSize]); err != nil {
		return nil, logex.Trace(err)
	}
	return &rec, nil
}

// saveInode does a read-modify-write of the block containing inumber n,
// bounds-checked against fs.inodes.
func (fs *FileSystem) saveInode(n int, rec *InodeRecord) error {
	if n < 0 || n >= fs.inodes {
		return ErrInumberOutOfRange.Trace(n)
	}
	block, slot := blockOf(n)
	buf := make([]byte, BlockSize)
	if err := fs.dev.ReadBlock(block, buf); err != nil {
		return logex.Trace(err)
	}
	copy(buf[slot*InodeSize:(slot+1)*InodeSize], rec.MarshalBinary())
	if err := fs.dev.WriteBlock(block, buf); err != nil {
		return logex.Trace(err)
	}
	return nil
}
