// Command run6502 loads a packaged memory configuration (or a raw
// flat binary mapped as all-RAM) and runs it on a CPU until a clean
// HLT or a fatal fault.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hexbus/emu6502/clock"
	"github.com/hexbus/emu6502/config"
	"github.com/hexbus/emu6502/cpu"
	"github.com/hexbus/emu6502/devices"
	"github.com/hexbus/emu6502/mapper"
)

// zipMagic is the local-file-header signature every zip archive
// starts with; a raw flat binary almost never happens to start with
// these four bytes.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

func main() {
	app := &cli.App{
		Name:      "run6502",
		Usage:     "run a packaged or raw 6502 binary image",
		ArgsUsage: "IMAGE",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "frequency",
				Usage: "clock frequency in Hz; 0 runs as fast as possible",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log each instruction's register state",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}

func run(c *cli.Context) error {
	imagePath := c.Args().First()
	if imagePath == "" {
		return cli.Exit("missing IMAGE", -1)
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return cli.Exit(err.Error(), -1)
	}

	clk := buildClock(c.Uint64("frequency"))

	m, err := buildMapper(raw, clk)
	if err != nil {
		return cli.Exit(err.Error(), -1)
	}

	machine := cpu.New(m, clk)
	if c.Bool("verbose") {
		machine.SetDebugger(func(r cpu.Registers) {
			fmt.Fprintln(os.Stderr, r.String())
		})
	}
	if err := machine.Reset(); err != nil {
		return cli.Exit(err.Error(), -1)
	}

	runErr := machine.Execute()
	if halt, ok := runErr.(*cpu.HaltError); ok {
		return cli.Exit("", int(halt.Code))
	}
	return cli.Exit(runErr.Error(), -1)
}

func buildClock(frequency uint64) clock.Clock {
	if frequency == 0 {
		return clock.NewSimple(0)
	}
	return clock.NewSteady(frequency)
}

// buildMapper recognizes a zip-packaged config.Package by its magic
// number; anything else is treated as a raw flat binary loaded at
// $0000 with the rest of the 64K address space as plain RAM.
func buildMapper(raw []byte, clk clock.Clock) (*mapper.Mapper, error) {
	if bytes.HasPrefix(raw, zipMagic) {
		pkg, err := config.ReadPackage(bytes.NewReader(raw), int64(len(raw)))
		if err != nil {
			return nil, err
		}
		return config.Build(&pkg.Config, pkg.Blobs, devices.DefaultRegistry(), clk)
	}
	return buildFlatImage(raw, clk)
}

func buildFlatImage(raw []byte, clk clock.Clock) (*mapper.Mapper, error) {
	cfg := &config.MemoryConfig{
		Entries: []config.MemoryEntry{
			{
				Offset: 0x0000,
				Name:   "ram",
				RAM: &config.RAMROMEntry{
					Size:  0, // the rest-of-address-space sentinel
					Image: &config.ImageRef{File: "image.bin"},
				},
			},
		},
	}
	blobs := map[string][]byte{"image.bin": raw}
	return config.Build(cfg, blobs, devices.DefaultRegistry(), clk)
}
