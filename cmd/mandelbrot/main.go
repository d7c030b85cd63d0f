// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command mandelbrot renders the Mandelbrot set to an image file, or serves
// renders over HTTP with --service.
//
// Usage:
//
//	mandelbrot [flags]
//
// The output format follows the extension of --name: .bmp, .png, .jpg,
// .tiff, .webp or .tga.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/mandelbrot"
	_ "github.com/gogpu/mandelbrot/backend/all"
	"github.com/gogpu/mandelbrot/internal/config"
	"github.com/gogpu/mandelbrot/internal/imageio"
	"github.com/gogpu/mandelbrot/internal/progress"
	"github.com/gogpu/mandelbrot/internal/service"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	flags      config.Flags
	ocl        bool
	vulkan     bool
	single     bool
	service    bool
	configPath string
	verbose    bool
}

func newFlagSet(stderr io.Writer) (*pflag.FlagSet, *options) {
	d := config.Defaults()
	o := &options{flags: config.Flags{Settings: d}}
	p := &o.flags.Params

	fs := pflag.NewFlagSet("mandelbrot", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.IntVarP(&p.Width, "width", "w", d.Params.Width, "image width in pixels")
	fs.IntVarP(&p.Height, "height", "h", d.Params.Height, "image height in pixels")
	fs.Float64Var(&p.CentreX, "centrex", d.Params.CentreX, "real part of the view centre")
	fs.Float64Var(&p.CentreY, "centrey", d.Params.CentreY, "imaginary part of the view centre")
	fs.Float64Var(&p.ScaleY, "scale", d.Params.ScaleY, "vertical extent of the view")
	fs.IntVar(&p.MaxIter, "iterations", d.Params.MaxIter, "maximum iterations per sample")
	fs.IntVar(&p.MaxColours, "colours", d.Params.MaxColours, "number of colour levels (power of two)")
	fs.IntVar(&p.Samples, "samples", d.Params.Samples, "supersampling factor per axis")
	fs.Uint8Var(&p.ColourFlags, "colour", d.Params.ColourFlags, "channel mask: 1 red, 2 green, 4 blue")
	fs.BoolVar(&p.Colourise, "colourise", false, "colour each row by the thread that rendered it")
	fs.IntVarP(&p.Threads, "threads", "j", d.Params.Threads, "CPU worker threads")
	fs.BoolVar(&o.flags.Progress, "progress", false, "show a progress bar")
	fs.BoolVar(&o.ocl, "ocl", false, "render with OpenCL")
	fs.BoolVar(&o.vulkan, "vulkan", false, "render with Vulkan")
	fs.BoolVar(&o.single, "single", false, "compute in single precision")
	fs.BoolVar(&o.service, "service", false, "run the HTTP service instead of rendering once")
	fs.StringVar(&o.flags.Output, "name", d.Output, "output file name")
	fs.StringVar(&o.configPath, "config", "", "JSON file with default settings")
	fs.StringVar(&o.flags.Addr, "addr", d.Addr, "service listen address")
	fs.StringVar(&o.flags.ImageDir, "images", d.ImageDir, "service image cache directory")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mandelbrot [flags]\n\n%s", fs.FlagUsages())
	}
	return fs, o
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, o := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "mandelbrot: unexpected arguments %v\n", fs.Args())
		return exitUsage
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	mandelbrot.SetLogger(logger)
	defer mandelbrot.SetLogger(nil)
	defer mandelbrot.CloseBackends()

	settings, err := o.resolve(fs)
	if err != nil {
		fmt.Fprintf(stderr, "mandelbrot: %v\n", err)
		return exitUsage
	}

	if o.service {
		return serve(ctx, settings, logger, stderr)
	}
	return renderOnce(settings, stdout, stderr)
}

func (o *options) resolve(fs *pflag.FlagSet) (config.Settings, error) {
	switch {
	case o.ocl:
		o.flags.Params.Backend = mandelbrot.BackendOpenCL
	case o.vulkan:
		o.flags.Params.Backend = mandelbrot.BackendVulkan
	}
	if o.single {
		o.flags.Params.Precision = mandelbrot.PrecisionSingle
	}
	o.flags.Changed = fs.Changed

	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return config.Settings{}, err
		}
		cfg = c
	}
	s, err := cfg.Resolve(o.flags)
	if err != nil {
		return config.Settings{}, err
	}
	if err := s.Params.Validate(); err != nil {
		return config.Settings{}, err
	}
	if _, err := imageio.FormatFromPath(s.Output); err != nil && !o.service {
		return config.Settings{}, err
	}
	return s, nil
}

func renderOnce(s config.Settings, stdout, stderr io.Writer) int {
	p := s.Params
	fmt.Fprintln(stdout, p)
	if p.Backend.IsGPU() {
		fmt.Fprintf(stdout, "Running %s version, threads flag will be ignored and no progress bar can be shown\n", p.Backend)
	}

	bar := progress.New(p.Width*p.Height, s.Progress && !p.Backend.IsGPU())
	start := time.Now()
	raster, err := mandelbrot.RenderRaster(p, mandelbrot.WithProgress(bar.Update))
	bar.Finish()
	if err != nil {
		fmt.Fprintf(stderr, "mandelbrot: %v\n", err)
		return exitFail
	}
	printer := message.NewPrinter(language.English)
	printer.Fprintf(stdout, "time taken: %dms\n", time.Since(start).Milliseconds())

	if err := imageio.Save(s.Output, raster); err != nil {
		fmt.Fprintf(stderr, "Error: could not write file: %v\n", err)
		return exitFail
	}
	return exitOK
}

func serve(ctx context.Context, s config.Settings, logger *slog.Logger, stderr io.Writer) int {
	srv, err := service.New(s.ImageDir, service.WithDefaults(s.Params), service.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "mandelbrot: %v\n", err)
		return exitFail
	}

	httpSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("service listening", "addr", s.Addr, "images", s.ImageDir)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		fmt.Fprintf(stderr, "mandelbrot: %v\n", err)
		return exitFail
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("service shutdown", "err", err)
	}
	logger.Info("service stopped", "renders", srv.Renders())
	return exitOK
}
