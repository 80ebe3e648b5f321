package cpu_test

import (
	"testing"

	"github.com/beevik/sim6502/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBounds(t *testing.T) {
	assert := assert.New(t)

	mem := cpu.NewMemory(1)
	assert.Equal(1, mem.Capacity())

	err := mem.Load(0, []byte{0xea, 0xea})
	assert.ErrorIs(err, cpu.ErrInvalidLoad)

	_, err = mem.Read(1)
	assert.ErrorIs(err, cpu.ErrOutOfRange)
	assert.ErrorIs(mem.Write(1, 0x42), cpu.ErrOutOfRange)

	v, err := mem.Read(0)
	assert.NoError(err)
	assert.Equal(byte(0), v)
}

func TestMemoryLoadIsAtomic(t *testing.T) {
	mem := cpu.NewMemory(4)
	err := mem.Load(2, []byte{1, 2, 3})
	require.ErrorIs(t, err, cpu.ErrInvalidLoad)
	assert.Equal(t, []byte{0, 0, 0, 0}, mem.Bytes())

	require.ErrorIs(t, mem.Load(5, nil), cpu.ErrInvalidLoad)
	require.NoError(t, mem.Load(4, nil))
}

func TestMemoryReadWrite(t *testing.T) {
	assert := assert.New(t)
	mem := cpu.NewMemory(cpu.DefaultMemorySize)

	for _, addr := range []uint16{0x0000, 0x00ff, 0x1234, 0xffff} {
		assert.NoError(mem.Write(addr, byte(addr>>4)))
		first, err := mem.Read(addr)
		assert.NoError(err)
		second, err := mem.Read(addr)
		assert.NoError(err)
		assert.Equal(byte(addr>>4), first)
		assert.Equal(first, second)
	}
}

func TestMemorySliceAndClear(t *testing.T) {
	mem := cpu.NewMemory(0x100)
	require.NoError(t, mem.Load(0x10, []byte{0xde, 0xad, 0xbe, 0xef}))

	b, err := mem.Slice(0x11, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xad, 0xbe}, b)

	_, err = mem.Slice(0xff, 2)
	assert.ErrorIs(t, err, cpu.ErrOutOfRange)

	// Slices and Bytes are copies.
	b[0] = 0
	v, _ := mem.Read(0x11)
	assert.Equal(t, byte(0xad), v)

	mem.Clear()
	v, _ = mem.Read(0x10)
	assert.Equal(t, byte(0), v)
	assert.Equal(t, 0x100, mem.Capacity())
}

func TestMemoryNegativeSize(t *testing.T) {
	mem := cpu.NewMemory(-5)
	assert.Equal(t, 0, mem.Capacity())
	_, err := mem.Read(0)
	assert.ErrorIs(t, err, cpu.ErrOutOfRange)
}
