package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/emufox/r3k/cpu"
	"github.com/emufox/r3k/emulator"
)

func main() {
	var biosPath string
	var compile string
	var steps int
	var verbose bool

	flag.StringVar(&biosPath, "bios", "", "boot ROM image to run (524288 bytes)")
	flag.StringVar(&compile, "c", "", ".s file to assemble and boot")
	flag.IntVar(&steps, "n", 0, "cycle limit, 0 runs until the first fault")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		err = emu.BootProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(biosPath) != 0:
		err := emu.LoadBiosFile(biosPath)
		if err != nil {
			log.Fatalf("%v: %v", biosPath, err)
		}
	default:
		log.Fatalf("%v: one of -bios or -c is required", os.Args[0])
	}

	err := emu.Reset()
	if err != nil {
		log.Fatalf("reset: %v", err)
	}

	err = emu.Run(steps)
	if err != nil {
		log.Printf("halted after %v cycles: %v", emu.Cpu.Ticks, err)
	}

	fmt.Print(emu.Cpu.String())
}
