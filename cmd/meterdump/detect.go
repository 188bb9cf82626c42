package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/meterdump/internal/cli"
	"github.com/linuxmatters/meterdump/internal/colorspace"
	"github.com/linuxmatters/meterdump/internal/config"
	"github.com/linuxmatters/meterdump/internal/detect"
	"github.com/linuxmatters/meterdump/internal/output"
	"github.com/linuxmatters/meterdump/internal/source"
	"github.com/linuxmatters/meterdump/internal/ui"
)

// DetectCmd runs the lit segment trigger over a series of dumps
type DetectCmd struct {
	Inputs           []string      `arg:"" name:"inputs" help:"Dumps in capture order"`
	Cluster          ClusterFlags  `embed:""`
	WindowOffset     int           `help:"Detection window offset from the top of the displayed frame, 0-100" default:"${default_window_offset}"`
	WindowHeight     int           `help:"Detection window height, 0-100" default:"${default_window_height}"`
	TriggerFill      int           `help:"Window fill that fires the trigger, 0-100" default:"${default_trigger_fill}"`
	TriggerResetFill int           `help:"Fill the window must drop below to re-arm, 0-100" default:"${default_trigger_reset_fill}"`
	TriggerResetTime time.Duration `help:"How long the fill must stay low before re-arming" default:"${default_trigger_reset_time}"`
	NoProgress       bool          `help:"Print one line per dump instead of the progress view"`
	Log              string        `help:"Append trigger timestamps to this file (default <first input>.detections.txt)" type:"path"`
}

// DetectionsSuffix names the default trigger log next to the first dump
const DetectionsSuffix = ".detections.txt"

// detector evaluates dumps one after another against a single trigger
type detector struct {
	cls     colorspace.Classifier
	window  config.Window
	rot     int
	trigger *detect.Trigger
	log     *detect.Log
	first   time.Time // Capture time of the first dump
}

func (d *detector) evaluate(path string, at time.Duration) (fill int, fired bool, err error) {
	src, err := source.OpenPlanar(path)
	if err != nil {
		return 0, false, err
	}
	w, h := src.Size()
	fill = detect.Fill(src, d.cls, detect.WindowFor(w, h, d.rot, d.window))
	fired = d.trigger.Update(fill, at)
	if fired && d.log != nil {
		if err := d.log.Record(d.first.Add(at)); err != nil {
			return fill, fired, err
		}
	}
	return fill, fired, nil
}

// Run executes the detect command
func (c *DetectCmd) Run() error {
	th, err := c.Cluster.validate()
	if err != nil {
		return err
	}
	window := config.Window{Offset: c.WindowOffset, Height: c.WindowHeight}
	if err := window.Validate(); err != nil {
		return err
	}
	trig := config.Trigger{
		Fill:      c.TriggerFill,
		ResetFill: c.TriggerResetFill,
		ResetTime: c.TriggerResetTime,
	}
	if err := trig.Validate(); err != nil {
		return err
	}

	first, clock, err := captureClock(c.Inputs)
	if err != nil {
		return err
	}

	logPath := c.Log
	if logPath == "" {
		logPath = output.Basename(c.Inputs[0]) + DetectionsSuffix
	}
	log, err := detect.OpenLog(logPath)
	if err != nil {
		return err
	}
	defer log.Close()

	d := &detector{
		cls:     colorspace.NewClassifier(th.Scaled()),
		window:  window,
		rot:     c.Cluster.Rotation,
		trigger: detect.NewTrigger(trig),
		log:     log,
		first:   first,
	}

	if c.NoProgress {
		err = c.runPlain(d, clock)
	} else {
		err = c.runProgress(d, clock)
	}
	if err != nil {
		return err
	}
	cli.PrintSaving(log.Path())
	return log.Close()
}

func (c *DetectCmd) runPlain(d *detector, clock []time.Duration) error {
	start := time.Now()
	cli.PrintBanner()
	cli.PrintSection("Detecting lit segments")

	triggers := 0
	for i, path := range c.Inputs {
		fill, fired, err := d.evaluate(path, clock[i])
		if err != nil {
			return err
		}
		line := fmt.Sprintf("fill %3d%%  at %s", fill, cli.FormatDuration(clock[i]))
		if fired {
			triggers++
			line += "  TRIGGER"
		}
		cli.PrintInfo(path, line)
	}

	cli.PrintSuccess(fmt.Sprintf("%d dumps, %d triggers in %s",
		len(c.Inputs), triggers, cli.FormatDuration(time.Since(start))))
	return nil
}

func (c *DetectCmd) runProgress(d *detector, clock []time.Duration) error {
	model := ui.NewDetectModel()
	p := tea.NewProgram(model)

	// Run detection in a goroutine and send progress updates
	go func() {
		start := time.Now()
		triggers := 0
		for i, path := range c.Inputs {
			fill, fired, err := d.evaluate(path, clock[i])
			if err != nil {
				p.Send(ui.DetectFailed{Err: err})
				return
			}
			if fired {
				triggers++
			}
			p.Send(ui.DetectProgress{
				Index:     i + 1,
				Total:     len(c.Inputs),
				Input:     path,
				Fill:      fill,
				Triggered: fired,
				At:        clock[i],
			})
		}
		p.Send(ui.DetectComplete{
			Dumps:    len(c.Inputs),
			Triggers: triggers,
			Elapsed:  time.Since(start),
		})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	if err := model.Err(); err != nil {
		return err
	}
	if !model.Complete() {
		return errors.New("detection interrupted")
	}
	return nil
}

// captureClock turns file modification times into offsets from the first
// dump, which it also returns. The clock never runs backwards: a dump older
// than its predecessor is treated as captured at the same instant.
func captureClock(paths []string) (first time.Time, clock []time.Duration, err error) {
	clock = make([]time.Duration, len(paths))
	for i, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, nil, err
		}
		if i == 0 {
			first = info.ModTime()
			continue
		}
		at := info.ModTime().Sub(first)
		if at < clock[i-1] {
			cli.PrintWarning(fmt.Sprintf("%s is older than the dump before it", path))
			at = clock[i-1]
		}
		clock[i] = at
	}
	return first, clock, nil
}
