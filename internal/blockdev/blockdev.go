// Package blockdev implements the external block-device collaborator:
// fixed-size block read/write, mount-count tracking, and read/write
// statistics, exposed as a single narrow Device interface with two
// concrete backends: a fixed-extent file and an in-memory buffer.
package blockdev

import (
	"os"

	"github.com/chzyer/logex"
)

// Device is the block I/O contract the filesystem core consumes. Indices
// are validated to lie in [0, Size()); out-of-range indices or
// wrong-length buffers are reported as errors, not masked.
type Device interface {
	Size() int
	Mounted() bool
	Mount()
	Unmount()
	ReadBlock(index int, buf []byte) error
	WriteBlock(index int, buf []byte) error
	Reads() uint64
	Writes() uint64
	Close() error
}

var (
	ErrOutOfRange  = logex.Define("blockdev: block index out of range")
	ErrShortBuffer = logex.Define("blockdev: buffer is not exactly BlockSize bytes")
)

func checkBounds(d Device, blockSize, index, bufLen int) error {
	if index < 0 || index >= d.Size() {
		return ErrOutOfRange.Trace(index, d.Size())
	}
	if bufLen != blockSize {
		return ErrShortBuffer.Trace(bufLen, blockSize)
	}
	return nil
}

// FileDevice is a Device backed by a regular file, truncated to exactly
// blocks*blockSize bytes on open — mirroring the reference disk
// emulator's openDisk/ftruncate behavior.
type FileDevice struct {
	f         *os.File
	blockSize int
	blocks    int
	mounts    int
	reads     uint64
	writes    uint64
}

// OpenFileDevice opens (creating if necessary) a file-backed device with
// the given block size and block count.
func OpenFileDevice(path string, blockSize, blocks int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, logex.Trace(err)
	}
	if err := f.Truncate(int64(blocks) * int64(blockSize)); err != nil {
		f.Close()
		return nil, logex.Trace(err)
	}
	return &FileDevice{f: f, blockSize: blockSize, blocks: blocks}, nil
}

// OpenExistingFileDevice opens a file-backed device without resizing it,
// deriving the block count from the file's current length. Used to
// reopen a disk image that was already formatted, where truncating to a
// possibly-wrong block count would corrupt it.
func OpenExistingFileDevice(path string, blockSize int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, logex.Trace(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, logex.Trace(err)
	}
	if info.Size()%int64(blockSize) != 0 {
		f.Close()
		return nil, logex.Trace(ErrShortBuffer.Trace(info.Size(), blockSize))
	}
	blocks := int(info.Size() / int64(blockSize))
	return &FileDevice{f: f, blockSize: blockSize, blocks: blocks}, nil
}

func (d *FileDevice) Size() int      { return d.blocks }
func (d *FileDevice) Mounted() bool  { return d.mounts > 0 }
func (d *FileDevice) Mount()         { d.mounts++ }
func (d *FileDevice) Reads() uint64  { return d.reads }
func (d *FileDevice) Writes() uint64 { return d.writes }

func (d *FileDevice) Unmount() {
	if d.mounts > 0 {
		d.mounts--
	}
}

func (d *FileDevice) ReadBlock(index int, buf []byte) error {
	if err := checkBounds(d, d.blockSize, index, len(buf)); err != nil {
		return err
	}
	n, err := d.f.ReadAt(buf, int64(index)*int64(d.blockSize))
	if err != nil {
		return logex.Trace(err, index)
	}
	if n != d.blockSize {
		return ErrShortBuffer.Trace(n, d.blockSize)
	}
	d.reads++
	return nil
}

func (d *FileDevice) WriteBlock(index int, buf []byte) error {
	if err := checkBounds(d, d.blockSize, index, len(buf)); err != nil {
		return err
	}
	n, err := d.f.WriteAt(buf, int64(index)*int64(d.blockSize))
	if err != nil {
		return logex.Trace(err, index)
	}
	if n != d.blockSize {
		return ErrShortBuffer.Trace(n, d.blockSize)
	}
	d.writes++
	return nil
}

func (d *FileDevice) Close() error {
	return d.f.Close()
}

// MemDevice is a Device backed by an in-memory buffer, used by unit
// tests that don't want to touch the filesystem.
type MemDevice struct {
	data      []byte
	blockSize int
	blocks    int
	mounts    int
	reads     uint64
	writes    uint64
}

func NewMemDevice(blockSize, blocks int) *MemDevice {
	return &MemDevice{
		data:      make([]byte, blockSize*blocks),
		blockSize: blockSize,
		blocks:    blocks,
	}
}

func (d *MemDevice) Size() int      { return d.blocks }
func (d *MemDevice) Mounted() bool  { return d.mounts > 0 }
func (d *MemDevice) Mount()         { d.mounts++ }
func (d *MemDevice) Reads() uint64  { return d.reads }
func (d *MemDevice) Writes() uint64 { return d.writes }
func (d *MemDevice) Close() error   { return nil }

func (d *MemDevice) Unmount() {
	if d.mounts > 0 {
		d.mounts--
	}
}

func (d *MemDevice) ReadBlock(index int, buf []byte) error {
	if err := checkBounds(d, d.blockSize, index, len(buf)); err != nil {
		return err
	}
	copy(buf, d.data[index*d.blockSize:(index+1)*d.blockSize])
	d.reads++
	return nil
}

func (d *MemDevice) WriteBlock(index int, buf []byte) error {
	if err := checkBounds(d, d.blockSize, index, len(buf)); err != nil {
		return err
	}
	copy(d.data[index*d.blockSize:(index+1)*d.blockSize], buf)
	d.writes++
	return nil
}
