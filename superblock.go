package sfs

import "github.com/chzyer/sfs/internal/wire"

// Superblock is the fixed-format record stored in block 0. All fields are
// little-endian on disk; the remainder of the block is zero padding.
type Superblock struct {
	MagicNumber uint32
	Blocks      uint32
	InodeBlocks uint32
	Inodes      uint32
}

// MarshalBinary encodes the superblock into a full BlockSize-sized block,
// zero-padded after the four header fields.
func (s *Superblock) MarshalBinary() []byte {
	buf := make([]byte, BlockSize)
	w := wire.NewWriter(buf)
	w.PutUint32(s.MagicNumber)
	w.PutUint32(s.Blocks)
	w.PutUint32(s.InodeBlocks)
	w.PutUint32(s.Inodes)
	return buf
}

// UnmarshalBinary decodes a superblock from a BlockSize-sized block. It
// does not validate the magic number or field relationships; callers
// performing a mount must do that themselves.
func (s *Superblock) UnmarshalBinary(buf []byte) error {
	r := wire.NewReader(buf)
	s.MagicNumber = r.Uint32()
	s.Blocks = r.Uint32()
	s.InodeBlocks = r.Uint32()
	s.Inodes = r.Uint32()
	return nil
}

// ceilDiv10 returns ceil(n / 10) without floating point, the rule used
// to size the inode table from the block count.
func ceilDiv10(n int) int {
	return (n + 9) / 10
}
