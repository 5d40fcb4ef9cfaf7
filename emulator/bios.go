package emulator

import (
	"bytes"
	"io"
	"log"
	"os"
)

// Consumer boot ROMs carry the manufacturer string; its absence
// usually means a homebrew or truncated image. That is a loader-side
// warning, never a core fault.
var biosSignature = []byte("Sony Computer Entertainment")

// LoadBios reads a boot ROM image and attaches it to the bus. The
// image must be exactly bus.BIOS_SIZE bytes.
func (emu *Emulator) LoadBios(reader io.Reader) (err error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return
	}

	err = emu.Bus.AttachBios(data)
	if err != nil {
		return
	}

	if !bytes.Contains(data, biosSignature) {
		log.Printf("emulator: boot rom carries no console signature, running it anyway")
	}

	return
}

// LoadBiosFile reads a boot ROM image from a file path.
func (emu *Emulator) LoadBiosFile(path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	return emu.LoadBios(inf)
}
