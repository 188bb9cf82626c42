package main

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/linuxmatters/meterdump/internal/config"
	"github.com/linuxmatters/meterdump/internal/dump"
	"github.com/linuxmatters/meterdump/internal/source"
)

func parse(t *testing.T, args ...string) (*Args, *kong.Context) {
	t.Helper()
	var a Args
	parser, err := kong.New(&a, kong.Name("meterdump"), kong.Vars(vars()))
	if err != nil {
		t.Fatalf("building parser: %v", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	return &a, ctx
}

func TestParseInspectDefaults(t *testing.T) {
	a, ctx := parse(t, "ElektroMeter.dump")

	if sel := ctx.Selected(); sel == nil || sel.Name != "inspect" {
		t.Errorf("command = %q, want inspect as the default", ctx.Command())
	}
	if a.Inspect.Input != "ElektroMeter.dump" {
		t.Errorf("input = %q", a.Inspect.Input)
	}
	if got := a.Inspect.Cluster.thresholds(); got != config.DefaultThresholds() {
		t.Errorf("thresholds = %+v, want defaults %+v", got, config.DefaultThresholds())
	}
	if a.Inspect.Cluster.Rotation != config.DefaultRotation {
		t.Errorf("rotation = %d, want %d", a.Inspect.Cluster.Rotation, config.DefaultRotation)
	}
}

func TestParseDetect(t *testing.T) {
	a, _ := parse(t, "detect", "--rotation", "90", "--trigger-reset-time", "1500ms", "--window-height", "40", "a.dump", "b.dump")

	if len(a.Detect.Inputs) != 2 {
		t.Fatalf("inputs = %v, want two", a.Detect.Inputs)
	}
	if a.Detect.Cluster.Rotation != 90 {
		t.Errorf("rotation = %d, want 90", a.Detect.Cluster.Rotation)
	}
	if a.Detect.TriggerResetTime != 1500*time.Millisecond {
		t.Errorf("reset time = %s, want 1.5s", a.Detect.TriggerResetTime)
	}
	if a.Detect.WindowHeight != 40 || a.Detect.WindowOffset != config.DefaultWindowOffset {
		t.Errorf("window = %d+%d, want 0+40", a.Detect.WindowOffset, a.Detect.WindowHeight)
	}
	if a.Detect.TriggerFill != config.DefaultTriggerFill {
		t.Errorf("trigger fill = %d, want %d", a.Detect.TriggerFill, config.DefaultTriggerFill)
	}
}

func TestParseRejectsOddRotation(t *testing.T) {
	var a Args
	parser, err := kong.New(&a, kong.Name("meterdump"), kong.Vars(vars()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"--rotation", "45", "x.dump"}); err == nil {
		t.Error("expected rotation 45 to be rejected")
	}
}

func TestClusterFlagsValidate(t *testing.T) {
	f := ClusterFlags{Blue: 40, Red: 83, Dist: 101, Luma: 25}
	_, err := f.validate()

	var rangeErr *config.RangeError
	if !errors.As(err, &rangeErr) || rangeErr.Field != "dist" {
		t.Errorf("validate() = %v, want range error on dist", err)
	}
}

// TestInspectRejectsBadThresholdsBeforeReading points inspect at a missing
// file; the configuration error must win.
func TestInspectRejectsBadThresholdsBeforeReading(t *testing.T) {
	cmd := InspectCmd{
		Input:   filepath.Join(t.TempDir(), "missing.dump"),
		Cluster: ClusterFlags{Blue: -1, Red: 83, Dist: 20, Luma: 25},
	}
	err := cmd.Run()

	var rangeErr *config.RangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("Run() = %v, want a range error", err)
	}
}

func TestCaptureClock(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	offsets := []time.Duration{0, 2 * time.Second, time.Second, 5 * time.Second}
	var paths []string
	for i, off := range offsets {
		p := filepath.Join(dir, string(rune('a'+i))+".dump")
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, base.Add(off), base.Add(off)); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	first, clock, err := captureClock(paths)
	if err != nil {
		t.Fatalf("captureClock failed: %v", err)
	}
	if !first.Equal(base) {
		t.Errorf("first = %s, want %s", first, base)
	}
	want := []time.Duration{0, 2 * time.Second, 2 * time.Second, 5 * time.Second}
	for i := range want {
		if clock[i] != want[i] {
			t.Errorf("clock[%d] = %s, want %s", i, clock[i], want[i])
		}
	}

	if _, _, err := captureClock([]string{filepath.Join(dir, "nope.dump")}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

// writeFrame writes a uniform dump whose chroma is either the reference
// colour or neutral gray, stamped with the given modification time.
func writeFrame(t *testing.T, path string, lit bool, mtime time.Time) {
	t.Helper()
	d := dump.NewI420(8, 6)
	for i := range d.Y.Data {
		d.Y.Data[i] = 150
	}
	u, v := byte(128), byte(128)
	if lit {
		u, v = 102, 211
	}
	for i := range d.U.Data {
		d.U.Data[i] = u
		d.V.Data[i] = v
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := dump.Encode(f, d); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestDetectWritesTriggerLog(t *testing.T) {
	dir := t.TempDir()
	base := time.Unix(1714564800, 0)

	frames := []struct {
		name string
		at   time.Duration
		lit  bool
	}{
		{"a.dump", 0, false},
		{"b.dump", time.Second, false},    // arms
		{"c.dump", 2 * time.Second, true}, // fires
		{"d.dump", 3 * time.Second, true},
		{"e.dump", 5 * time.Second, false}, // re-arms
		{"f.dump", 8 * time.Second, true},  // fires
	}
	var inputs []string
	for _, f := range frames {
		p := filepath.Join(dir, f.name)
		writeFrame(t, p, f.lit, base.Add(f.at))
		inputs = append(inputs, p)
	}

	cmd := DetectCmd{
		Inputs:           inputs,
		Cluster:          ClusterFlags{Blue: 40, Red: 83, Dist: 20, Luma: 25},
		WindowHeight:     100,
		TriggerFill:      50,
		TriggerResetFill: 50,
		NoProgress:       true,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "a"+DetectionsSuffix))
	if err != nil {
		t.Fatalf("default detection log missing: %v", err)
	}
	if want := "1714564802\n1714564808\n"; string(got) != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestDetectLogFlag(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "only.dump")
	writeFrame(t, input, false, time.Unix(1714564800, 0))
	logPath := filepath.Join(dir, "custom.txt")

	cmd := DetectCmd{
		Inputs:       []string{input},
		Cluster:      ClusterFlags{Blue: 40, Red: 83, Dist: 20, Luma: 25},
		WindowHeight: 100,
		TriggerFill:  50,
		NoProgress:   true,
		Log:          logPath,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if info, err := os.Stat(logPath); err != nil || info.Size() != 0 {
		t.Errorf("custom log = %v, %v; want an empty file", info, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "only"+DetectionsSuffix)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("default log should not be written when --log is set: %v", err)
	}
}

func TestPack(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "shot.png")

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 211, G: uint8(100 + x), B: 102, A: 255})
		}
	}
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	for _, compress := range []bool{false, true} {
		cmd := PackCmd{Input: input, Zstd: compress}
		if err := cmd.Run(); err != nil {
			t.Fatalf("Run(zstd=%v) failed: %v", compress, err)
		}

		want := filepath.Join(dir, "shot.dump")
		if compress {
			want += ".zst"
		}
		d, err := dump.Open(want)
		if err != nil {
			t.Fatalf("reading packed dump %s: %v", want, err)
		}
		got := source.NewPlanar(d).Sample(3, 1)
		if got.Y != 103 || got.U != 102 || got.V != 211 {
			t.Errorf("zstd=%v: sample (3,1) = %+v, want Y 103 U 102 V 211", compress, got)
		}
	}
}
