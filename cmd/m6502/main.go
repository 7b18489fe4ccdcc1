// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/m6502/cpu"
	"github.com/ezrec/m6502/emulator"
	"github.com/ezrec/m6502/io"
	"github.com/ezrec/m6502/translate"
)

// noSymbols resolves nothing, for command line addresses.
func noSymbols(string) (uint16, bool) {
	return 0, false
}

func main() {
	var compile string
	var output string
	var binary string
	var address string
	var save bool
	var steps int
	var batch int
	var hexdump bool
	var snapshot string
	var scale int
	var verbose bool
	var lang string

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&output, "o", "", "Write the assembled program as a raw binary")
	flag.StringVar(&binary, "b", "", "Raw binary to load instead of assembling")
	flag.StringVar(&address, "a", "$8000", "Load address of the raw binary")
	flag.BoolVar(&save, "s", false, "Save only, do not execute")
	flag.IntVar(&steps, "n", 0, "Maximum instructions to execute; 0 is unlimited")
	flag.IntVar(&batch, "batch", emulator.BATCH_SIZE, "Instructions per batch")
	flag.BoolVar(&hexdump, "x", false, "Hex dump the program image")
	flag.StringVar(&snapshot, "png", "", "Write the screen to a PNG file after running")
	flag.IntVar(&scale, "scale", 4, "Pixel scale of the PNG snapshot")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&lang, "lang", "", "Message language, overriding the locale")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(lang) != 0 {
		err := translate.SetLanguage(lang)
		if err != nil {
			log.Fatalf("-lang %v: %v", lang, err)
		}
	}

	if len(compile) != 0 && len(binary) != 0 {
		log.Fatalf("%v: -c and -b are exclusive", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	rom := &io.Rom{Origin: cpu.LOAD_ADDRESS}

	// Assemble a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm, err := emu.Assembler()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if len(prog.Errors) != 0 {
			for _, text := range prog.Diagnostics() {
				log.Printf("%v: %v", compile, text)
			}
			os.Exit(1)
		}

		if len(prog.Code) != 0 {
			err = emu.Load(prog)
			if err != nil {
				log.Fatalf("%v: %v", compile, err)
			}
		}

		rom.Origin = prog.Start
		rom.Data = prog.Code
	}

	// Load a raw binary.
	if len(binary) != 0 {
		origin, err := cpu.Evaluate(address, noSymbols)
		if err != nil || origin < 0 || origin >= cpu.MEMORY_SIZE {
			log.Fatalf("-a %v: invalid address", address)
		}

		inf, err := os.Open(binary)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		defer inf.Close()

		rom.Origin = uint16(origin)
		_, err = rom.ReadFrom(inf)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}

		err = emu.LoadBinary(rom.Data, rom.Origin)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
	}

	if len(output) != 0 {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		_, err = rom.WriteTo(ouf)
		if err == nil {
			err = ouf.Close()
		}
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	if hexdump {
		hd := &io.HexDump{}
		if interactive {
			columns, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				hd.Width = io.Width(columns)
			}
		}
		err := hd.Write(os.Stdout, rom.Origin, rom.Data)
		if err != nil {
			log.Fatal(err)
		}
	}

	if save || len(rom.Data) == 0 {
		return
	}

	emu.Console.Output = os.Stdout
	emu.Limit = steps

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	count, err := emu.Run(ctx, batch)
	if interactive && !strings.HasSuffix(emu.Console.String(), "\n") && len(emu.Console.String()) != 0 {
		os.Stdout.WriteString("\n")
	}

	switch {
	case err == nil:
	case errors.Is(err, emulator.ErrStepLimit), errors.Is(err, context.Canceled):
		log.Printf("%v at line %v", err, emu.LineNo())
	default:
		log.Fatal(err)
	}

	if verbose {
		log.Printf("%v steps, %v", count, emu.Cpu)
	}

	if len(snapshot) != 0 {
		emu.Screen.Scale = scale
		ouf, err := os.Create(snapshot)
		if err != nil {
			log.Fatalf("%v: %v", snapshot, err)
		}
		err = emu.Screen.WritePNG(ouf, &emu.Ram)
		if err == nil {
			err = ouf.Close()
		}
		if err != nil {
			log.Fatalf("%v: %v", snapshot, err)
		}
	}
}
