// Command asm6502 assembles a single 6502 source file into a sparse
// binary image, optionally writing it out as a flat binary and/or a
// hex dump for inspection.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hexbus/emu6502/assembler"
	"github.com/hexbus/emu6502/cpu"
)

func main() {
	app := &cli.App{
		Name:      "asm6502",
		Usage:     "assemble a 6502 source file",
		ArgsUsage: "INPUT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bin-output",
				Usage: "write the assembled image as a flat binary to PATH",
			},
			&cli.StringFlag{
				Name:  "hex-dump",
				Usage: "write a human-readable hex dump to PATH",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print symbol table and unresolved references",
			},
			&cli.StringFlag{
				Name:  "symbol-dump",
				Usage: "write the resolved symbol table to PATH",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(exitCode(err))
	}
}

func run(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		return cli.Exit("missing INPUT source file", -1)
	}

	r, err := openInput(input)
	if err != nil {
		return cli.Exit(err.Error(), -1)
	}
	defer r.Close()

	prog, err := assembler.Assemble(input, r, cpu.Entries())
	if err != nil {
		return err
	}

	if c.Bool("verbose") {
		fmt.Fprint(os.Stderr, prog.SymbolDump())
		for _, name := range prog.UnresolvedSymbols() {
			fmt.Fprintf(os.Stderr, "unresolved: %s\n", name)
		}
	}

	if path := c.String("bin-output"); path != "" {
		if err := writeBinOutput(path, prog); err != nil {
			return cli.Exit(err.Error(), -1)
		}
	}
	if path := c.String("hex-dump"); path != "" {
		if err := os.WriteFile(path, []byte(prog.Code.HexDump("")), 0644); err != nil {
			return cli.Exit(err.Error(), -1)
		}
	}
	if path := c.String("symbol-dump"); path != "" {
		if err := os.WriteFile(path, []byte(prog.SymbolDump()), 0644); err != nil {
			return cli.Exit(err.Error(), -1)
		}
	}
	return nil
}

func openInput(input string) (io.ReadCloser, error) {
	if input == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(input)
}

// writeBinOutput writes the full 64KiB image, byte N at file offset N,
// with unoccupied addresses zero, so run6502 can map it at $0000.
func writeBinOutput(path string, prog *assembler.Program) error {
	buf := make([]byte, 0x10000)
	for addr, b := range prog.Code.Bytes {
		buf[addr] = b
	}
	return os.WriteFile(path, buf, 0644)
}

// exitCode maps a CompilationError's Kind to the process exit code
// spec.md §6 assigns it; any other error (I/O, usage) exits negative.
func exitCode(err error) int {
	if cerr, ok := err.(*assembler.CompilationError); ok {
		return int(cerr.Kind)
	}
	if exitErr, ok := err.(cli.ExitCoder); ok {
		return exitErr.ExitCode()
	}
	log.Println(err)
	return -1
}
