// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads render settings from a JSON file and merges them with
// command-line flags.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gogpu/mandelbrot"
)

// Defaults for the non-render settings.
const (
	DefaultOutput   = "output.bmp"
	DefaultAddr     = ":8000"
	DefaultImageDir = "images"
)

// Config mirrors the JSON file. Nil pointers and empty strings mean the key
// was absent and the default applies.
type Config struct {
	// Render settings
	Width      *int     `json:"width,omitempty"`
	Height     *int     `json:"height,omitempty"`
	CentreX    *float64 `json:"centre_x,omitempty"`
	CentreY    *float64 `json:"centre_y,omitempty"`
	Scale      *float64 `json:"scale,omitempty"`
	Iterations *int     `json:"iterations,omitempty"`
	Colours    *int     `json:"colours,omitempty"`
	Samples    *int     `json:"samples,omitempty"`
	Colour     *uint8   `json:"colour,omitempty"`
	Colourise  *bool    `json:"colourise,omitempty"`
	Threads    *int     `json:"threads,omitempty"`
	Backend    string   `json:"backend,omitempty"`
	Single     *bool    `json:"single,omitempty"`

	// Output settings
	Progress *bool  `json:"progress,omitempty"`
	Output   string `json:"output,omitempty"`
	Addr     string `json:"addr,omitempty"`
	ImageDir string `json:"image_dir,omitempty"`
}

// Settings is a fully resolved run configuration.
type Settings struct {
	Params   mandelbrot.Params
	Progress bool
	Output   string
	Addr     string
	ImageDir string
}

// Defaults returns the settings used when neither file nor flags say otherwise.
func Defaults() Settings {
	return Settings{
		Params:   mandelbrot.DefaultParams(),
		Output:   DefaultOutput,
		Addr:     DefaultAddr,
		ImageDir: DefaultImageDir,
	}
}

// Flags carries values parsed from the command line. Changed reports whether
// the named flag was given explicitly; only those values override the file.
type Flags struct {
	Settings
	Changed func(name string) bool
}

// Load reads a JSON config file. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve layers defaults, then the file, then explicitly set flags.
func (c Config) Resolve(flags Flags) (Settings, error) {
	s := Defaults()
	p := &s.Params

	setInt(&p.Width, c.Width)
	setInt(&p.Height, c.Height)
	setFloat(&p.CentreX, c.CentreX)
	setFloat(&p.CentreY, c.CentreY)
	setFloat(&p.ScaleY, c.Scale)
	setInt(&p.MaxIter, c.Iterations)
	setInt(&p.MaxColours, c.Colours)
	setInt(&p.Samples, c.Samples)
	if c.Colour != nil {
		p.ColourFlags = *c.Colour
	}
	setBool(&p.Colourise, c.Colourise)
	setInt(&p.Threads, c.Threads)
	if c.Backend != "" {
		b, err := mandelbrot.ParseBackend(c.Backend)
		if err != nil {
			return Settings{}, fmt.Errorf("config: %w", err)
		}
		p.Backend = b
	}
	if c.Single != nil && *c.Single {
		p.Precision = mandelbrot.PrecisionSingle
	}
	setBool(&s.Progress, c.Progress)
	setString(&s.Output, c.Output)
	setString(&s.Addr, c.Addr)
	setString(&s.ImageDir, c.ImageDir)

	if flags.Changed == nil {
		return s, nil
	}
	f := flags.Params
	for _, o := range []struct {
		name  string
		apply func()
	}{
		{"width", func() { p.Width = f.Width }},
		{"height", func() { p.Height = f.Height }},
		{"centrex", func() { p.CentreX = f.CentreX }},
		{"centrey", func() { p.CentreY = f.CentreY }},
		{"scale", func() { p.ScaleY = f.ScaleY }},
		{"iterations", func() { p.MaxIter = f.MaxIter }},
		{"colours", func() { p.MaxColours = f.MaxColours }},
		{"samples", func() { p.Samples = f.Samples }},
		{"colour", func() { p.ColourFlags = f.ColourFlags }},
		{"colourise", func() { p.Colourise = f.Colourise }},
		{"threads", func() { p.Threads = f.Threads }},
		{"ocl", func() { p.Backend = f.Backend }},
		{"vulkan", func() { p.Backend = f.Backend }},
		{"single", func() { p.Precision = f.Precision }},
		{"progress", func() { s.Progress = flags.Progress }},
		{"name", func() { s.Output = flags.Output }},
		{"addr", func() { s.Addr = flags.Addr }},
		{"images", func() { s.ImageDir = flags.ImageDir }},
	} {
		if flags.Changed(o.name) {
			o.apply()
		}
	}
	return s, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
