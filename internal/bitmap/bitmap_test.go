package bitmap

import (
	"testing"

	"github.com/chzyer/test"
)

func TestAllocateFirstFit(t *testing.T) {
	defer test.New(t)

	b := New(10)
	for i := 0; i < 3; i++ {
		b.Reserve(i)
	}

	idx := b.Allocate()
	test.Equal(idx, 3)

	idx2 := b.Allocate()
	test.Equal(idx2, 4)

	test.Nil(b.Release(3))
	idx3 := b.Allocate()
	test.Equal(idx3, 3)
}

func TestAllocateExhausted(t *testing.T) {
	defer test.New(t)

	b := New(2)
	test.Equal(b.Allocate(), 0)
	test.Equal(b.Allocate(), 1)
	test.Equal(b.Allocate(), -1)
}

func TestReleaseOutOfRange(t *testing.T) {
	defer test.New(t)

	b := New(4)
	err := b.Release(10)
	test.NotNil(err)
}

func TestNewClearsTailBits(t *testing.T) {
	defer test.New(t)

	// 5 blocks: only the low 5 bits of the first word should ever be
	// handed out by Allocate.
	b := New(5)
	for i := 0; i < 5; i++ {
		test.Equal(b.Allocate(), i)
	}
	test.Equal(b.Allocate(), -1)
}
