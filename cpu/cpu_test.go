package cpu

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emufox/r3k/bus"
)

// testCpu builds a core whose boot ROM starts with the given codes,
// NOP padded to the full image size.
func testCpu(t *testing.T, codes ...Instruction) (cpu *Cpu) {
	t.Helper()
	assert := assert.New(t)

	image := make([]byte, bus.BIOS_SIZE)
	for n, code := range codes {
		binary.LittleEndian.PutUint32(image[n*4:], uint32(code))
	}

	b := bus.NewBus()
	err := b.AttachBios(image)
	assert.NoError(err)

	cpu = NewCpu(b)
	err = cpu.Reset()
	assert.NoError(err)

	return
}

func TestResetState(t *testing.T) {
	assert := assert.New(t)

	cpu := testCpu(t)

	assert.Equal(RESET_VECTOR, cpu.Pc)
	assert.Equal(uint32(0), cpu.Reg(0))
	for n := uint32(1); n < 32; n++ {
		assert.Equal(POISON, cpu.Reg(n), "register %d", n)
	}
	assert.Equal(POISON, cpu.Hi)
	assert.Equal(POISON, cpu.Lo)

	cpu.ZeroReset = true
	assert.NoError(cpu.Reset())
	for n := uint32(0); n < 32; n++ {
		assert.Equal(uint32(0), cpu.Reg(n), "register %d", n)
	}
}

func TestRegisterZero(t *testing.T) {
	assert := assert.New(t)

	cpu := testCpu(t,
		MakeLui(0, 0xffff),
		MakeOri(0, 0, 0xffff),
		MakeAddiu(0, 0, 1),
	)

	for range 3 {
		assert.NoError(cpu.Tick())
		assert.Equal(uint32(0), cpu.Reg(0))
	}

	cpu.SetReg(0, 0xdeadbeef)
	assert.Equal(uint32(0), cpu.Reg(0))
}

func TestLuiOri(t *testing.T) {
	assert := assert.New(t)

	cpu := testCpu(t,
		MakeLui(8, 0x1234),
		MakeOri(8, 8, 0x5678),
	)

	assert.NoError(cpu.Tick())
	assert.Equal(uint32(0x12340000), cpu.Reg(8))
	assert.NoError(cpu.Tick())
	assert.Equal(uint32(0x12345678), cpu.Reg(8))
}

func TestDelaySlot(t *testing.T) {
	assert := assert.New(t)

	// Jump at the reset vector, OR-immediate in its delay slot.
	target := uint32(0xbfc00010)
	cpu := testCpu(t,
		MakeJ(target>>2),
		MakeOri(5, 0, 0xca),
	)

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())

	// The delay slot instruction retired, and the jump landed.
	assert.Equal(uint32(0xca), cpu.Reg(5))
	assert.Equal(target, cpu.Pc)
}

func TestAddiuWraps(t *testing.T) {
	assert := assert.New(t)

	cpu := testCpu(t,
		MakeAddiu(3, 0, 0xffff), // addiu $3, $0, -1
		MakeLui(4, 0xffff),
		MakeOri(4, 4, 0xffff),
		MakeAddiu(4, 4, 1), // 0xffffffff + 1 wraps, no trap
	)

	assert.NoError(cpu.Tick())
	assert.Equal(uint32(0xffffffff), cpu.Reg(3))

	for range 3 {
		assert.NoError(cpu.Tick())
	}
	assert.Equal(uint32(0), cpu.Reg(4))
}

func TestSll(t *testing.T) {
	assert := assert.New(t)

	cpu := testCpu(t,
		MakeOri(2, 0, 1),
		MakeSll(3, 2, 4),
		MakeSll(4, 2, 31),
	)

	for range 3 {
		assert.NoError(cpu.Tick())
	}
	assert.Equal(uint32(0x10), cpu.Reg(3))
	assert.Equal(uint32(0x80000000), cpu.Reg(4))
}

func TestSw(t *testing.T) {
	assert := assert.New(t)

	cpu := testCpu(t,
		MakeLui(8, 0xdead),
		MakeOri(8, 8, 0xbeef),
		MakeSw(8, 0, 0x100),
		MakeOri(9, 0, 0x200),
		MakeSw(8, 9, 0xfffc), // sw $8, -4($9)
	)

	for range 5 {
		assert.NoError(cpu.Tick())
	}

	value, err := cpu.Bus.Load32(0x100)
	assert.NoError(err)
	assert.Equal(uint32(0xdeadbeef), value)
	assert.Equal([]byte{0xef, 0xbe, 0xad, 0xde}, cpu.Bus.Ram[0x100:0x104])

	value, err = cpu.Bus.Load32(0x1fc)
	assert.NoError(err)
	assert.Equal(uint32(0xdeadbeef), value)
}

func TestSwFault(t *testing.T) {
	assert := assert.New(t)

	cpu := testCpu(t,
		MakeLui(1, 0xfffe),
		MakeSw(0, 1, 0), // store into the unbacked kseg2 window
	)

	assert.NoError(cpu.Tick())
	err := cpu.Tick()
	assert.ErrorIs(err, bus.ErrBus)
	assert.Equal(1, cpu.Ticks)
}

func TestIllegalInstruction(t *testing.T) {
	assert := assert.New(t)

	for _, word := range []uint32{0xfc000000, 0x00000001} {
		cpu := testCpu(t, Instruction(word))

		err := cpu.Tick()
		assert.ErrorIs(err, ErrIllegal(0), "word 0x%08x", word)
		assert.Equal(0, cpu.Ticks, "word 0x%08x", word)
	}
}

func TestResetWithoutBios(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(bus.NewBus())
	err := cpu.Reset()
	assert.ErrorIs(err, bus.ErrBus)
}
