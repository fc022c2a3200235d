// Package wire encodes and decodes the fixed-width little-endian records
// that make up the on-disk image: the superblock, inode records and
// indirect-block pointer arrays. A Reader/Writer is a cursor over one
// already-sized buffer (a whole block, or a single inode record), not a
// growable stream.
package wire

import "encoding/binary"

// Encoder marshals a fixed-size on-disk record into a byte slice.
type Encoder interface {
	MarshalBinary() []byte
}

// Decoder unmarshals a fixed-size on-disk record from a byte slice.
type Decoder interface {
	UnmarshalBinary([]byte) error
}

// Reader is a cursor for pulling little-endian fields out of a block.
type Reader struct {
	data   []byte
	offset int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Offset() int { return r.offset }

func (r *Reader) Uint32() uint32 {
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v
}

func (r *Reader) Skip(n int) { r.offset += n }

// Writer is a cursor for placing little-endian fields into a block.
type Writer struct {
	data   []byte
	offset int
}

func NewWriter(data []byte) *Writer {
	return &Writer{data: data}
}

func (w *Writer) Offset() int { return w.offset }

func (w *Writer) PutUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.data[w.offset:], v)
	w.offset += 4
}

func (w *Writer) Skip(n int) { w.offset += n }
