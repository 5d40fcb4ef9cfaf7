// Package bus models the memory interconnect of the console: main RAM,
// the scratchpad, the memory-control register window, and the boot ROM,
// all resolved from masked logical addresses.
//
// The address space is tiny and static, so the bus keeps a fixed list
// of disjoint regions and tests them in priority order instead of
// maintaining a page table. Every multi-byte value on the bus is
// little-endian.
package bus

import (
	"encoding/binary"
)

// Region geometry, in physical (post-mask) addresses.
const (
	RAM_BASE = uint32(0x00000000)
	RAM_SIZE = uint32(2 * 1024 * 1024)

	SCRATCH_BASE = uint32(0x1f800000)
	SCRATCH_SIZE = uint32(1024)

	MEM_CONTROL_BASE = uint32(0x1f801000)
	MEM_CONTROL_SIZE = uint32(8 * 1024)

	BIOS_BASE = uint32(0x1fc00000)
	BIOS_SIZE = uint32(512 * 1024)
)

// Expansion-bus base registers at the head of the memory-control
// window. The stock hardware never relocates either bus.
const (
	EXPANSION_1_BASE = uint32(0) // Window-relative offset of the expansion 1 base register.
	EXPANSION_2_BASE = uint32(4) // Window-relative offset of the expansion 2 base register.
)

// Range is a (base, length) span of physical addresses.
type Range struct {
	Base   uint32
	Length uint32
}

// Contains reports whether addr falls inside the range.
func (r Range) Contains(addr uint32) bool {
	return addr >= r.Base && addr-r.Base < r.Length
}

// Offset returns the base-relative offset of addr. The caller must
// have checked Contains first.
func (r Range) Offset(addr uint32) uint32 {
	return addr - r.Base
}

// The region table. Regions never overlap, so resolution order only
// matters for audit, not correctness.
var (
	RAM_RANGE         = Range{RAM_BASE, RAM_SIZE}
	SCRATCH_RANGE     = Range{SCRATCH_BASE, SCRATCH_SIZE}
	MEM_CONTROL_RANGE = Range{MEM_CONTROL_BASE, MEM_CONTROL_SIZE}
	BIOS_RANGE        = Range{BIOS_BASE, BIOS_SIZE}
)

// segmentMask maps the top three address bits onto a physical alias
// mask. KUSEG and the two kernel mirrors (cached and uncached)
// collapse onto the same physical span; KSEG2 keeps its full address
// and therefore never matches a backed region.
var segmentMask = [8]uint32{
	// KUSEG: 0x00000000 - 0x7fffffff
	0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff,
	// KSEG0: 0x80000000 - 0x9fffffff
	0x7fffffff,
	// KSEG1: 0xa0000000 - 0xbfffffff
	0x1fffffff,
	// KSEG2: 0xc0000000 - 0xffffffff
	0xffffffff, 0xffffffff,
}

// Mask collapses a logical address onto its physical alias. Applied
// before any region membership test, so 0x00xxxxxx, 0x80xxxxxx and
// 0xa0xxxxxx resolve identically.
func Mask(addr uint32) uint32 {
	return addr & segmentMask[addr>>29]
}

// Bus owns all addressable byte storage and resolves masked logical
// addresses onto it. One CPU core owns the bus exclusively; there is
// no access arbitration.
type Bus struct {
	Ram     []byte // Main RAM, 2 MiB.
	Scratch []byte // Scratchpad "data cache", 1 KiB.
	Bios    []byte // Boot ROM image; attached once before the first fetch.
}

// NewBus allocates the writable regions zero-filled. The boot ROM is
// attached separately by the loader.
func NewBus() (bus *Bus) {
	bus = &Bus{
		Ram:     make([]byte, RAM_SIZE),
		Scratch: make([]byte, SCRATCH_SIZE),
	}

	return
}

// AttachBios installs the boot ROM image. The loader contract is
// exactly BIOS_SIZE bytes; anything else is rejected.
func (bus *Bus) AttachBios(data []byte) (err error) {
	if uint32(len(data)) != BIOS_SIZE {
		err = ErrBiosSize(len(data))
		return
	}

	bus.Bios = data

	return
}

// word reads the little-endian word at a region-relative offset.
// An offset past the end of the backing buffer means the region table
// and the buffer disagree, which is an emulator defect rather than a
// guest-visible fault.
func word(buf []byte, offset uint32) uint32 {
	if uint64(offset)+4 > uint64(len(buf)) {
		panic(f("region backing too short: offset %#x in %d bytes", offset, len(buf)))
	}

	return binary.LittleEndian.Uint32(buf[offset:])
}

// putWord writes the little-endian word at a region-relative offset.
func putWord(buf []byte, offset uint32, value uint32) {
	if uint64(offset)+4 > uint64(len(buf)) {
		panic(f("region backing too short: offset %#x in %d bytes", offset, len(buf)))
	}

	binary.LittleEndian.PutUint32(buf[offset:], value)
}

// Load32 returns the aligned little-endian word at a logical address.
// Main RAM and the boot ROM are readable; any other address has no
// word-readable backing and faults.
func (bus *Bus) Load32(addr uint32) (value uint32, err error) {
	if addr%4 != 0 {
		err = ErrUnaligned(addr)
		return
	}

	phys := Mask(addr)

	switch {
	case RAM_RANGE.Contains(phys):
		value = word(bus.Ram, RAM_RANGE.Offset(phys))
	case BIOS_RANGE.Contains(phys) && bus.Bios != nil:
		value = word(bus.Bios, BIOS_RANGE.Offset(phys))
	default:
		err = ErrUnmapped(addr)
	}

	return
}

// Store32 writes an aligned little-endian word to a logical address.
// Main RAM and the scratchpad are writable. Stores into the
// memory-control window are accepted and dropped, except for the two
// expansion-bus base registers, which must never move. The boot ROM
// is not a store target.
func (bus *Bus) Store32(addr uint32, value uint32) (err error) {
	if addr%4 != 0 {
		err = ErrUnaligned(addr)
		return
	}

	phys := Mask(addr)

	switch {
	case RAM_RANGE.Contains(phys):
		putWord(bus.Ram, RAM_RANGE.Offset(phys), value)
	case SCRATCH_RANGE.Contains(phys):
		putWord(bus.Scratch, SCRATCH_RANGE.Offset(phys), value)
	case MEM_CONTROL_RANGE.Contains(phys):
		switch MEM_CONTROL_RANGE.Offset(phys) {
		case EXPANSION_1_BASE, EXPANSION_2_BASE:
			err = ErrExpansionMapOverwrite(addr)
		}
		// The remaining control registers hold latency setup the
		// model does not act on; the write is dropped.
	default:
		err = ErrUnmapped(addr)
	}

	return
}
