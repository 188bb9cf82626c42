package config

import (
	"fmt"
	"time"
)

// Colour cluster defaults (logical 0-100 range)
const (
	DefaultBlue = 40 // Blue projection (U) of the reference colour
	DefaultRed  = 83 // Red projection (V) of the reference colour
	DefaultDist = 20 // Maximum chrominance distance
	DefaultLuma = 25 // Minimum luma
)

// Camera settings
const (
	DefaultRotation = 0
)

// Detection window and trigger defaults
const (
	DefaultWindowOffset     = 0
	DefaultWindowHeight     = 100
	DefaultTriggerFill      = 50
	DefaultTriggerResetFill = 50
	DefaultTriggerResetTime = 0 * time.Millisecond
)

// Threshold range accepted on the command line
const (
	MinPercent = 0
	MaxPercent = 100
)

// RangeError reports a configuration value outside its accepted range.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: not in range %d to %d: %d", e.Field, e.Min, e.Max, e.Value)
}

// Scale maps a 0-100 value onto the 8-bit pixel range using floor division.
func Scale(v int) int {
	return v * 255 / 100
}

// Thresholds holds the colour cluster parameters in their logical 0-100 range.
type Thresholds struct {
	Blue int
	Red  int
	Dist int
	Luma int
}

// DefaultThresholds returns the thresholds used when none are given.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Blue: DefaultBlue,
		Red:  DefaultRed,
		Dist: DefaultDist,
		Luma: DefaultLuma,
	}
}

// Validate checks every threshold lies within [0,100].
func (t Thresholds) Validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"blue", t.Blue},
		{"red", t.Red},
		{"dist", t.Dist},
		{"luma", t.Luma},
	} {
		if err := checkPercent(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Scaled holds thresholds converted to the 8-bit pixel range.
type Scaled struct {
	BlueProjection  int
	RedProjection   int
	Luma            int
	Distance        int
	DistanceSquared int
}

// Scaled converts the thresholds to pixel values. The squared distance is
// computed once here so the per-pixel test never needs a square root.
func (t Thresholds) Scaled() Scaled {
	dist := Scale(t.Dist)
	return Scaled{
		BlueProjection:  Scale(t.Blue),
		RedProjection:   Scale(t.Red),
		Luma:            Scale(t.Luma),
		Distance:        dist,
		DistanceSquared: dist * dist,
	}
}

// ValidateRotation accepts the four right-angle camera rotations.
func ValidateRotation(degrees int) error {
	switch degrees {
	case 0, 90, 180, 270:
		return nil
	}
	return fmt.Errorf("rotation: must be one of 0, 90, 180, 270: %d", degrees)
}

// Window locates the detection band as percentages of the frame.
type Window struct {
	Offset int
	Height int
}

// DefaultWindow covers the whole frame.
func DefaultWindow() Window {
	return Window{Offset: DefaultWindowOffset, Height: DefaultWindowHeight}
}

// Validate checks both values are percentages and the band fits the frame.
func (w Window) Validate() error {
	if err := checkPercent("window-offset", w.Offset); err != nil {
		return err
	}
	if err := checkPercent("window-height", w.Height); err != nil {
		return err
	}
	if w.Offset+w.Height > MaxPercent {
		return &RangeError{Field: "window-offset+window-height", Value: w.Offset + w.Height, Min: MinPercent, Max: MaxPercent}
	}
	return nil
}

// Trigger configures when a detection fires.
type Trigger struct {
	Fill      int           // Window fill (percent) that fires the trigger
	ResetFill int           // Fill below which the reset timer runs
	ResetTime time.Duration // Time fill must stay low before re-arming
}

// DefaultTrigger returns the trigger settings used when none are given.
func DefaultTrigger() Trigger {
	return Trigger{
		Fill:      DefaultTriggerFill,
		ResetFill: DefaultTriggerResetFill,
		ResetTime: DefaultTriggerResetTime,
	}
}

// Validate checks the fill thresholds are percentages and the reset time
// is not negative.
func (t Trigger) Validate() error {
	if err := checkPercent("trigger-fill", t.Fill); err != nil {
		return err
	}
	if err := checkPercent("trigger-reset-fill", t.ResetFill); err != nil {
		return err
	}
	if t.ResetTime < 0 {
		return fmt.Errorf("trigger-reset-time: must not be negative: %s", t.ResetTime)
	}
	return nil
}

func checkPercent(field string, v int) error {
	if v < MinPercent || v > MaxPercent {
		return &RangeError{Field: field, Value: v, Min: MinPercent, Max: MaxPercent}
	}
	return nil
}
