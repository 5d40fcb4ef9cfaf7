package bus

import (
	"errors"

	"github.com/emufox/r3k/translate"
)

var f = translate.From

// ErrBus is the class of all bus faults: access at an unaligned
// address, or at an address with no physical backing. Always fatal to
// the current run.
var ErrBus = errors.New(f("bus fault"))

// ErrUnaligned is an access at an address that is not word aligned.
type ErrUnaligned uint32

func (eu ErrUnaligned) Error() string {
	return f("bus fault: unaligned address 0x%08x", uint32(eu))
}

func (eu ErrUnaligned) Unwrap() error {
	return ErrBus
}

func (eu ErrUnaligned) Is(err error) (ok bool) {
	_, ok = err.(ErrUnaligned)
	return
}

// ErrUnmapped is an access at an address with no physical backing.
type ErrUnmapped uint32

func (eu ErrUnmapped) Error() string {
	return f("bus fault: unmapped address 0x%08x", uint32(eu))
}

func (eu ErrUnmapped) Unwrap() error {
	return ErrBus
}

func (eu ErrUnmapped) Is(err error) (ok bool) {
	_, ok = err.(ErrUnmapped)
	return
}

// ErrExpansionMapOverwrite is a store that would relocate one of the
// fixed expansion-bus base registers. It signals an emulation bug or
// genuinely anomalous guest software, so it is never dropped with the
// rest of the window writes.
type ErrExpansionMapOverwrite uint32

func (ee ErrExpansionMapOverwrite) Error() string {
	return f("expansion map overwrite at 0x%08x", uint32(ee))
}

func (ee ErrExpansionMapOverwrite) Is(err error) (ok bool) {
	_, ok = err.(ErrExpansionMapOverwrite)
	return
}

// ErrBiosSize is a boot ROM image with the wrong length.
type ErrBiosSize int

func (eb ErrBiosSize) Error() string {
	return f("boot rom image is %d bytes, want %d", int(eb), BIOS_SIZE)
}

func (eb ErrBiosSize) Is(err error) (ok bool) {
	_, ok = err.(ErrBiosSize)
	return
}
