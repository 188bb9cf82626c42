package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/linuxmatters/meterdump/internal/cli"
	"github.com/linuxmatters/meterdump/internal/config"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// ClusterFlags are the colour cluster and orientation settings shared by
// every command
type ClusterFlags struct {
	Rotation int `help:"Clockwise rotation applied to the output, in degrees" enum:"0,90,180,270" default:"${default_rotation}"`
	Blue     int `help:"Blue projection (U) of the reference colour, 0-100" default:"${default_blue}"`
	Red      int `help:"Red projection (V) of the reference colour, 0-100" default:"${default_red}"`
	Dist     int `help:"Maximum chrominance distance from the reference colour, 0-100" default:"${default_dist}"`
	Luma     int `help:"Minimum luma of an in-cluster pixel, 0-100" default:"${default_luma}"`
}

func (f ClusterFlags) thresholds() config.Thresholds {
	return config.Thresholds{
		Blue: f.Blue,
		Red:  f.Red,
		Dist: f.Dist,
		Luma: f.Luma,
	}
}

// validate checks the shared settings before any input is read
func (f ClusterFlags) validate() (config.Thresholds, error) {
	th := f.thresholds()
	if err := th.Validate(); err != nil {
		return th, err
	}
	if err := config.ValidateRotation(f.Rotation); err != nil {
		return th, err
	}
	return th, nil
}

// Args is the command line grammar
type Args struct {
	Inspect InspectCmd `cmd:"" default:"withargs" help:"Convert a dump to RGB and map the lit segment colour"`
	Detect  DetectCmd  `cmd:"" help:"Measure lit segment fill over a series of dumps and report triggers"`
	Pack    PackCmd    `cmd:"" help:"Convert a packed V,Y,U image into a planar dump"`
	Version bool       `help:"Show version information"`
}

var CLI Args

func vars() kong.Vars {
	return kong.Vars{
		"version":                    version,
		"default_rotation":           strconv.Itoa(config.DefaultRotation),
		"default_blue":               strconv.Itoa(config.DefaultBlue),
		"default_red":                strconv.Itoa(config.DefaultRed),
		"default_dist":               strconv.Itoa(config.DefaultDist),
		"default_luma":               strconv.Itoa(config.DefaultLuma),
		"default_window_offset":      strconv.Itoa(config.DefaultWindowOffset),
		"default_window_height":      strconv.Itoa(config.DefaultWindowHeight),
		"default_trigger_fill":       strconv.Itoa(config.DefaultTriggerFill),
		"default_trigger_reset_fill": strconv.Itoa(config.DefaultTriggerResetFill),
		"default_trigger_reset_time": config.DefaultTriggerResetTime.String(),
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("meterdump"),
		kong.Description(cli.AppDescription),
		kong.Vars(vars()),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if err := ctx.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("%v", err))
		os.Exit(1)
	}
}
