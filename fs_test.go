package sfs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chzyer/test"

	"github.com/chzyer/sfs/internal/blockdev"
)

func newDisk(t testing.TB, blocks int) *blockdev.MemDevice {
	return blockdev.NewMemDevice(BlockSize, blocks)
}

func TestFormatRejectsMountedDisk(t *testing.T) {
	defer test.New(t)

	dev := newDisk(t, 20)
	dev.Mount()
	ok, err := Format(dev)
	test.Nil(err)
	test.Equal(ok, false)
}

func TestFormatAndMount(t *testing.T) {
	defer test.New(t)

	dev := newDisk(t, 20)
	ok, err := Format(dev)
	test.Nil(err)
	test.Equal(ok, true)

	fs, err := Mount(dev)
	test.Nil(err)
	test.NotNil(fs)
	defer fs.Unmount()

	test.Equal(fs.Blocks(), 20)
	test.Equal(fs.InodeBlocks(), 2)
	test.Equal(fs.Inodes(), 2*InodesPerBlock)
}

func TestMountTwiceFails(t *testing.T) {
	defer test.New(t)

	dev := newDisk(t, 20)
	_, err := Format(dev)
	test.Nil(err)

	fs1, err := Mount(dev)
	test.Nil(err)
	test.NotNil(fs1)

	fs2, err := Mount(dev)
	test.Nil(err)
	test.Equal(fs2 == nil, true)

	fs1.Unmount()
}

func TestMountRejectsBadMagic(t *testing.T) {
	defer test.New(t)

	dev := newDisk(t, 20)
	_, err := Format(dev)
	test.Nil(err)

	buf := make([]byte, BlockSize)
	dev.ReadBlock(0, buf)
	buf[0] ^= 0xFF
	dev.WriteBlock(0, buf)

	fs, err := Mount(dev)
	test.Nil(err)
	test.Equal(fs == nil, true)
}

func TestDebugReportsEmptyFilesystem(t *testing.T) {
	defer test.New(t)

	dev := newDisk(t, 20)
	_, err := Format(dev)
	test.Nil(err)

	var buf bytes.Buffer
	test.Nil(Debug(dev, &buf))
	out := buf.String()
	test.Equal(strings.Contains(out, "20 blocks"), true)
	test.Equal(strings.Contains(out, "2 inode blocks"), true)
	test.Equal(strings.Contains(out, "256 inodes"), true)
	test.Equal(strings.Contains(out, "Inode"), false)
}

func mustMount(t testing.TB, blocks int) (*blockdev.MemDevice, *FileSystem) {
	dev := newDisk(t, blocks)
	_, err := Format(dev)
	test.Nil(err)
	fs, err := Mount(dev)
	test.Nil(err)
	return dev, fs
}

func TestCreateStatReadWriteScenario(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 20)
	defer fs.Unmount()

	n0, err := fs.Create()
	test.Nil(err)
	test.Equal(n0, 0)

	size, err := fs.Stat(n0)
	test.Nil(err)
	test.Equal(size, 0)

	n1, err := fs.Create()
	test.Nil(err)
	test.Equal(n1, 1)

	written, err := fs.Write(n0, []byte("hello"), 5, 0)
	test.Nil(err)
	test.Equal(written, 5)

	size, err = fs.Stat(n0)
	test.Nil(err)
	test.Equal(size, 5)

	buf := make([]byte, 5)
	read, err := fs.Read(n0, buf, 5, 0)
	test.Nil(err)
	test.Equal(read, 5)
	test.Equal(string(buf), "hello")
}

func TestWriteAllocatesIndirectBlock(t *testing.T) {
	defer test.New(t)

	// InodeBlocks=ceil(64/10)=7, leaving 64-1-7=56 data blocks: enough
	// for 5 direct + 1 indirect + 1 indirect-data block.
	_, fs := mustMount(t, 64)
	defer fs.Unmount()

	n, err := fs.Create()
	test.Nil(err)

	data := bytes.Repeat([]byte{0xAB}, BlockSize*6)
	written, err := fs.Write(n, data, len(data), 0)
	test.Nil(err)
	test.Equal(written, len(data))

	size, err := fs.Stat(n)
	test.Nil(err)
	test.Equal(size, BlockSize*6)

	report, err := fs.Fsck(false)
	test.Nil(err)
	test.Equal(report.Clean(), true)

	out := make([]byte, len(data))
	read, err := fs.Read(n, out, len(data), 0)
	test.Nil(err)
	test.Equal(read, len(data))
	test.Equal(out, data)
}

func TestWriteBeyondMaxFileSizeReturnsZero(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 2000)
	defer fs.Unmount()

	n, err := fs.Create()
	test.Nil(err)

	fillLen := MaxFileSize
	data := bytes.Repeat([]byte{1}, fillLen)
	written, err := fs.Write(n, data, len(data), 0)
	test.Nil(err)
	test.Equal(written, fillLen)

	more, err := fs.Write(n, []byte("x"), 1, MaxFileSize)
	test.Nil(err)
	test.Equal(more, 0)
}

func TestRemoveFreesBlocksAndReusesInumber(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 64)
	defer fs.Unmount()

	n, err := fs.Create()
	test.Nil(err)

	data := bytes.Repeat([]byte{0xCD}, BlockSize*6)
	_, err = fs.Write(n, data, len(data), 0)
	test.Nil(err)

	ok, err := fs.Remove(n)
	test.Nil(err)
	test.Equal(ok, true)

	size, err := fs.Stat(n)
	test.Nil(err)
	test.Equal(size, -1)

	n2, err := fs.Create()
	test.Nil(err)
	test.Equal(n2, n)

	report, err := fs.Fsck(false)
	test.Nil(err)
	test.Equal(report.Clean(), true)
}

func TestRemoveTwiceFails(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 20)
	defer fs.Unmount()

	n, err := fs.Create()
	test.Nil(err)

	ok, err := fs.Remove(n)
	test.Nil(err)
	test.Equal(ok, true)

	ok, err = fs.Remove(n)
	test.Nil(err)
	test.Equal(ok, false)
}

func TestReadOffsetEqualsSizeReturnsZero(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 20)
	defer fs.Unmount()

	n, err := fs.Create()
	test.Nil(err)
	_, err = fs.Write(n, []byte("hi"), 2, 0)
	test.Nil(err)

	buf := make([]byte, 10)
	read, err := fs.Read(n, buf, 0, 2)
	test.Nil(err)
	test.Equal(read, 0)
}

func TestReadOffsetPastSizeFails(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 20)
	defer fs.Unmount()

	n, err := fs.Create()
	test.Nil(err)

	buf := make([]byte, 10)
	read, err := fs.Read(n, buf, 1, 1)
	test.Nil(err)
	test.Equal(read, -1)
}

func TestStatInvalidInumber(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 20)
	defer fs.Unmount()

	size, err := fs.Stat(9999)
	test.Nil(err)
	test.Equal(size, -1)

	size, err = fs.Stat(0)
	test.Nil(err)
	test.Equal(size, -1)
}

func TestFullInodeTableCreateFails(t *testing.T) {
	defer test.New(t)

	_, fs := mustMount(t, 10) // InodeBlocks=1, Inodes=128
	defer fs.Unmount()

	for i := 0; i < fs.Inodes(); i++ {
		n, err := fs.Create()
		test.Nil(err)
		test.Equal(n, i)
	}
	n, err := fs.Create()
	test.Nil(err)
	test.Equal(n, -1)
}

func TestShortWriteOnFullDisk(t *testing.T) {
	defer test.New(t)

	// Tiny disk: superblock + 1 inode block leaves very few data
	// blocks, so a large write must fall short.
	_, fs := mustMount(t, 10) // 1 inode block, 8 data blocks
	defer fs.Unmount()

	n, err := fs.Create()
	test.Nil(err)

	data := bytes.Repeat([]byte{9}, BlockSize*20)
	written, err := fs.Write(n, data, len(data), 0)
	test.Nil(err)
	test.Equal(written < len(data), true)

	size, err := fs.Stat(n)
	test.Nil(err)
	test.Equal(size, written)

	report, err := fs.Fsck(false)
	test.Nil(err)
	test.Equal(report.Clean(), true)
}
