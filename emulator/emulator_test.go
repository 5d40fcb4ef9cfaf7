package emulator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emufox/r3k/bus"
	"github.com/emufox/r3k/cpu"
)

// boot assembles a source listing and installs it as the boot ROM.
func boot(t *testing.T, source string) (emu *Emulator) {
	t.Helper()
	assert := assert.New(t)

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	emu = NewEmulator()
	err = emu.BootProgram(prog)
	assert.NoError(err)
	err = emu.Reset()
	assert.NoError(err)

	return
}

func TestBootProgram(t *testing.T) {
	assert := assert.New(t)

	emu := boot(t, `
start:	lui $t0, 0x1234
	ori $t0, $t0, 0x5678
	sw $t0, 0x100($zero)
	j start
	nop
`)

	err := emu.Run(10)
	assert.NoError(err)

	assert.Equal(uint32(0x12345678), emu.Cpu.Reg(8))
	assert.Equal([]byte{0x78, 0x56, 0x34, 0x12}, emu.Bus.Ram[0x100:0x104])
	assert.Equal(10, emu.Cpu.Ticks)
}

func TestRuntimeLine(t *testing.T) {
	assert := assert.New(t)

	emu := boot(t, `
	lui $1, 0xfffe
	sw $0, 0($1)	; kseg2 is unbacked
`)

	err := emu.Run(0)
	assert.ErrorIs(err, bus.ErrBus)

	var runtime *ErrRuntime
	if assert.ErrorAs(err, &runtime) {
		assert.Equal(3, runtime.LineNo)
	}
}

func TestIllegalStopsRun(t *testing.T) {
	assert := assert.New(t)

	emu := boot(t, `
	ori $2, $0, 7
	.word 0xfc000000
`)

	err := emu.Run(0)
	assert.ErrorIs(err, cpu.ErrIllegal(0))
	assert.Equal(uint32(7), emu.Cpu.Reg(2))
	assert.Equal(1, emu.Cpu.Ticks)
}

func TestRunOffRomEnd(t *testing.T) {
	assert := assert.New(t)

	// An all-NOP ROM executes to the last word, then the lookahead
	// fetch walks off the region.
	emu := boot(t, "nop")

	err := emu.Run(0)
	assert.ErrorIs(err, bus.ErrBus)
	assert.Equal(int(bus.BIOS_SIZE/4)-1, emu.Cpu.Ticks)
}

func TestLoadBios(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	err := emu.LoadBios(strings.NewReader("short"))
	assert.ErrorIs(err, bus.ErrBiosSize(0))

	image := make([]byte, bus.BIOS_SIZE)
	copy(image[0x100:], biosSignature)
	image[0] = 0x0d
	image[2] = 0x05
	image[3] = 0x34 // ori $5, $0, 0xd
	err = emu.LoadBios(strings.NewReader(string(image)))
	assert.NoError(err)

	assert.NoError(emu.Reset())
	assert.NoError(emu.Tick())
	assert.Equal(uint32(0xd), emu.Cpu.Reg(5))
}
