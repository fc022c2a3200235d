package blockdev

import (
	"path/filepath"
	"testing"

	"github.com/chzyer/test"
)

func TestMemDeviceReadWrite(t *testing.T) {
	defer test.New(t)

	d := NewMemDevice(512, 4)
	buf := make([]byte, 512)
	for i := range buf {
		buf[i] = 0x42
	}
	test.Nil(d.WriteBlock(1, buf))

	out := make([]byte, 512)
	test.Nil(d.ReadBlock(1, out))
	test.Equal(out, buf)
	test.Equal(d.Reads(), uint64(1))
	test.Equal(d.Writes(), uint64(1))
}

func TestMemDeviceOutOfRange(t *testing.T) {
	defer test.New(t)

	d := NewMemDevice(512, 4)
	buf := make([]byte, 512)
	test.NotNil(d.ReadBlock(4, buf))
	test.NotNil(d.WriteBlock(-1, buf))
}

func TestMemDeviceShortBuffer(t *testing.T) {
	defer test.New(t)

	d := NewMemDevice(512, 4)
	test.NotNil(d.ReadBlock(0, make([]byte, 10)))
}

func TestMemDeviceMountCounter(t *testing.T) {
	defer test.New(t)

	d := NewMemDevice(512, 4)
	test.Equal(d.Mounted(), false)
	d.Mount()
	test.Equal(d.Mounted(), true)
	d.Unmount()
	test.Equal(d.Mounted(), false)
	// unmounting an already-unmounted device is a no-op, not negative
	d.Unmount()
	test.Equal(d.Mounted(), false)
}

func TestFileDeviceRoundTrip(t *testing.T) {
	defer test.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "disk.img")

	d, err := OpenFileDevice(path, 4096, 20)
	test.Nil(err)
	defer d.Close()

	test.Equal(d.Size(), 20)

	buf := make([]byte, 4096)
	copy(buf, "hello")
	test.Nil(d.WriteBlock(5, buf))

	out := make([]byte, 4096)
	test.Nil(d.ReadBlock(5, out))
	test.Equal(out, buf)
}
