package sfs

import "github.com/chzyer/sfs/internal/wire"

// InodeRecord is the fixed-format, InodeSize-byte record describing one
// file. The zero value is the all-invalid, empty record.
type InodeRecord struct {
	Valid    uint32
	Size     uint32
	Direct   [PointersPerInode]uint32
	Indirect uint32
}

func (n *InodeRecord) MarshalBinary() []byte {
	buf := make([]byte, InodeSize)
	w := wire.NewWriter(buf)
	w.PutUint32(n.Valid)
	w.PutUint32(n.Size)
	for _, d := range n.Direct {
		w.PutUint32(d)
	}
	w.PutUint32(n.Indirect)
	return buf
}

func (n *InodeRecord) UnmarshalBinary(buf []byte) error {
	r := wire.NewReader(buf)
	n.Valid = r.Uint32()
	n.Size = r.Uint32()
	for i := range n.Direct {
		n.Direct[i] = r.Uint32()
	}
	n.Indirect = r.Uint32()
	return nil
}

// indirectBlock is an on-disk block interpreted as PointersPerBlock
// 32-bit block indices.
type indirectBlock struct {
	Pointers [PointersPerBlock]uint32
}

func (b *indirectBlock) MarshalBinary() []byte {
	buf := make([]byte, BlockSize)
	w := wire.NewWriter(buf)
	for _, p := range b.Pointers {
		w.PutUint32(p)
	}
	return buf
}

func (b *indirectBlock) UnmarshalBinary(buf []byte) error {
	r := wire.NewReader(buf)
	for i := range b.Pointers {
		b.Pointers[i] = r.Uint32()
	}
	return nil
}
