// {{{ Copyright (C) 2013 Constantin Baranov <const86@gmail.com>
//
// This file is part of glgrab.
//
// glgrab is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// glgrab is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with glgrab.  If not, see <http://www.gnu.org/licenses/>. }}}

// Command glgrab-record restores glgrab_init_from_env's producer loop: it
// creates an mrb buffer from the environment and repeatedly takes frames
// from a Source until interrupted. Real GL/EGL/GLX interception is out of
// scope here, so this command drives capture.Recorder with a synthetic
// Source that paints a solid test colour which changes every frame, useful for exercising the rest
// of the pipeline (mrb, demux, encode) end to end without a GL context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/const86/glgrab/capture"
	"github.com/const86/glgrab/internal/logging"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	Width, Height uint32
	FPS           float64
	Verbose       bool
}

var rootCmd = &cobra.Command{
	Use:   "glgrab-record",
	Short: "Record a synthetic test pattern into an mrb buffer described by GLGRAB_MRB",
	RunE: func(rawCmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.Uint32Var(&cmd.Width, "width", 640, "frame width in pixels")
	flags.Uint32Var(&cmd.Height, "height", 480, "frame height in pixels")
	flags.Float64Var(&cmd.FPS, "fps", 30, "frames captured per second")
	flags.BoolVar(&cmd.Verbose, "verbose", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd Cmd) error {
	level := zapcore.InfoLevel
	if cmd.Verbose {
		level = zapcore.DebugLevel
	}
	log, _, err := logging.Init(logging.Config{Level: level})
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := capture.ConfigFromEnv()
	if err != nil {
		return err
	}

	rec, err := capture.NewRecorder(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return recordLoop(ctx, rec, &patternSource{}, cmd.Width, cmd.Height, cmd.FPS)
	})

	err = g.Wait()
	closeErr := rec.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return closeErr
}

func recordLoop(ctx context.Context, rec *capture.Recorder, src capture.Source, width, height uint32, fps float64) error {
	period := time.Duration(float64(time.Second) / fps)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := rec.TakeFrame(src, width, height); err != nil {
				return fmt.Errorf("take frame: %w", err)
			}
		}
	}
}

// patternSource paints a BGRA frame whose brightness ramps with each call,
// standing in for glgrab's GL framebuffer readback.
type patternSource struct {
	frame byte
}

func (p *patternSource) CaptureFrame(paddedWidth, paddedHeight uint32) ([]byte, error) {
	buf := make([]byte, int(paddedWidth)*int(paddedHeight)*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i+0] = p.frame       // B
		buf[i+1] = 128           // G
		buf[i+2] = 255 - p.frame // R
		buf[i+3] = 255           // A
	}
	p.frame++
	return buf, nil
}
