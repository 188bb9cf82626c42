package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/linuxmatters/meterdump/internal/cli"
	"github.com/linuxmatters/meterdump/internal/colorspace"
	"github.com/linuxmatters/meterdump/internal/composite"
	"github.com/linuxmatters/meterdump/internal/output"
	"github.com/linuxmatters/meterdump/internal/source"
	"github.com/linuxmatters/meterdump/internal/ui"
)

// InspectCmd converts one dump into the diagnostic raster set
type InspectCmd struct {
	Input   string       `arg:"" name:"input" help:"Input dump (YUV_420_888, optionally zstd compressed) or packed image" optional:""`
	Cluster ClusterFlags `embed:""`
	Packed  bool         `help:"Read input as a packed image whose R,G,B channels hold V,Y,U"`
	Sheet   bool         `help:"Also write a labelled 2x2 contact sheet"`
	Preview bool         `help:"Render the mask in the terminal"`
	Workers int          `help:"Goroutines for the pixel pass (0 = one per CPU)" default:"0"`
}

// Run executes the inspect command
func (c *InspectCmd) Run() error {
	if c.Input == "" {
		return errors.New("<input> is required")
	}
	th, err := c.Cluster.validate()
	if err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers value: %d (must be 0 or more)", c.Workers)
	}

	start := time.Now()

	src, err := source.Open(c.Input, c.Packed)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	cls := colorspace.NewClassifier(th.Scaled())
	rasters, stats := composite.Run(src, cls, composite.Options{Workers: c.Workers})

	sink := output.Sink{
		Base:     output.Basename(c.Input),
		Rotation: c.Cluster.Rotation,
		Sheet:    c.Sheet,
	}
	artifacts, err := sink.Write(rasters)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	for _, a := range artifacts {
		cli.PrintSaving(a.Path)
		if a.Legend {
			cli.PrintLegend(output.LegendLines)
		}
	}

	if c.Preview {
		mask, err := output.Rotate(rasters.Mask, c.Cluster.Rotation)
		if err != nil {
			return err
		}
		cfg := ui.DefaultPreviewConfig()
		fmt.Println()
		fmt.Print(ui.Preview(composite.NameMask, mask, cfg.Width, cfg.Height))
	}

	w, h := src.Size()
	cli.PrintInspectSummary(cli.InspectSummary{
		Input:      c.Input,
		Width:      w,
		Height:     h,
		Rotation:   c.Cluster.Rotation,
		Pixels:     stats.Pixels,
		InCluster:  stats.InCluster,
		Thresholds: fmt.Sprintf("blue %d  red %d  dist %d  luma %d", th.Blue, th.Red, th.Dist, th.Luma),
		Elapsed:    time.Since(start),
	})
	return nil
}
