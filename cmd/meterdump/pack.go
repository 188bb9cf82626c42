package main

import (
	"fmt"
	"os"

	"github.com/linuxmatters/meterdump/internal/cli"
	"github.com/linuxmatters/meterdump/internal/dump"
	"github.com/linuxmatters/meterdump/internal/output"
	"github.com/linuxmatters/meterdump/internal/source"
)

// PackCmd converts a packed V,Y,U image into a planar dump
type PackCmd struct {
	Input  string `arg:"" name:"input" help:"Packed image whose R,G,B channels hold V,Y,U"`
	Output string `help:"Output dump path (default <input>.dump, or .dump.zst with --zstd)" type:"path"`
	Zstd   bool   `help:"Compress the dump with zstd"`
}

func (c *PackCmd) outputPath() string {
	if c.Output != "" {
		return c.Output
	}
	if c.Zstd {
		return output.Basename(c.Input) + ".dump.zst"
	}
	return output.Basename(c.Input) + ".dump"
}

// Run executes the pack command
func (c *PackCmd) Run() error {
	src, err := source.OpenPacked(c.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	d := source.ToDump(src)

	path := c.outputPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	encode := dump.Encode
	if c.Zstd {
		encode = dump.EncodeZstd
	}
	if err := encode(f, d); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing output: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("writing output: %w", err)
	}

	cli.PrintSaving(path)
	return nil
}
