package snapshot_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/beevik/sim6502/cpu"
	"github.com/beevik/sim6502/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T) *cpu.Processor {
	p := cpu.NewProcessor(cpu.NewMemory(cpu.DefaultMemorySize))
	require.NoError(t, p.LoadProgram(0x1000, []byte{
		0x38,       // SEC
		0xa9, 0x42, // LDA #$42
		0x85, 0x20, // STA $20
	}, 0x1000))
	for range 3 {
		require.NoError(t, p.Step())
	}
	return p
}

func TestRoundTrip(t *testing.T) {
	p := newProcessor(t)
	trace := []string{"1000- 38 SEC", "1001- A9 42 LDA #$42"}

	var buf bytes.Buffer
	_, err := snapshot.Take(p, trace).WriteTo(&buf)
	require.NoError(t, err)

	s := &snapshot.Snapshot{}
	_, err = s.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, trace, s.Trace)

	q := cpu.NewProcessor(cpu.NewMemory(cpu.DefaultMemorySize))
	require.NoError(t, s.Restore(q))

	assert.Equal(t, p.Registers(), q.Registers())
	assert.Equal(t, p.Cycles(), q.Cycles())
	assert.Equal(t, p.CyclesRemaining(), q.CyclesRemaining())
	assert.Equal(t, p.CurrentOpcode(), q.CurrentOpcode())
	assert.Equal(t, p.Memory().Bytes(), q.Memory().Bytes())

	v, err := q.Memory().Read(0x20)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), v)
	assert.True(t, q.Carry())
}

func TestSaveLoad(t *testing.T) {
	p := newProcessor(t)
	path := filepath.Join(t.TempDir(), "session.snap")
	require.NoError(t, snapshot.Take(p, nil).Save(path))

	s, err := snapshot.Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.Registers(), s.Registers)
	assert.Empty(t, s.Trace)
}

func TestBadInput(t *testing.T) {
	s := &snapshot.Snapshot{}
	_, err := s.ReadFrom(bytes.NewReader([]byte("NOPE!")))
	assert.ErrorIs(t, err, snapshot.ErrBadMagic)

	_, err = s.ReadFrom(bytes.NewReader([]byte("S6502\x07\x00\x00\x00")))
	assert.ErrorIs(t, err, snapshot.ErrBadVersion)
}

func TestRestoreSizeMismatch(t *testing.T) {
	s := snapshot.Take(newProcessor(t), nil)
	q := cpu.NewProcessor(cpu.NewMemory(0x100))
	assert.ErrorIs(t, s.Restore(q), snapshot.ErrMemorySize)
}
