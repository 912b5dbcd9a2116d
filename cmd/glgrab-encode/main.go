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

// Command glgrab-encode restores the shape of export.c's swarm: it reads
// presentation-ordered packets from an mrb buffer, encodes them across a
// worker pool, and muxes the results to an output file in order. No codec
// library is present in this module's dependency set, so the default
// Encoder writes packets through as raw I420 planes (one concatenated
// Y/U/V payload per frame) and the Muxer appends them to a flat file;
// either can be swapped for a real implementation without touching the
// pipeline in encode.Pool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/const86/glgrab/demux"
	"github.com/const86/glgrab/encode"
	"github.com/const86/glgrab/internal/logging"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	Input   string
	Output  string
	FPSNum  int64
	FPSDen  int64
	Workers int
	Verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "glgrab-encode INPUT-MRB OUTPUT-FILE",
	Short: "Demux, encode and mux an mrb buffer's frames in presentation order",
	Args:  cobra.ExactArgs(2),
	RunE: func(rawCmd *cobra.Command, args []string) error {
		cmd.Input = args[0]
		cmd.Output = args[1]
		return run(cmd)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.Int64Var(&cmd.FPSNum, "fps-num", 30, "output frame rate numerator")
	flags.Int64Var(&cmd.FPSDen, "fps-den", 1, "output frame rate denominator")
	flags.IntVar(&cmd.Workers, "workers", 4, "number of concurrent encoder workers")
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

	d, err := demux.Open(cmd.Input, demux.Rational{Num: cmd.FPSNum, Den: cmd.FPSDen})
	if err != nil {
		return fmt.Errorf("open %s: %w", cmd.Input, err)
	}
	defer d.Close()

	out, err := os.Create(cmd.Output)
	if err != nil {
		return fmt.Errorf("create %s: %w", cmd.Output, err)
	}
	defer out.Close()

	pool := &encode.Pool{
		Source:  d,
		Encoder: passthroughEncoder{},
		Muxer:   &flatMuxer{f: out},
		Workers: cmd.Workers,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pool.Run(ctx); err != nil {
		return fmt.Errorf("encode %s: %w", cmd.Input, err)
	}

	log.Infow("encode complete", "input", cmd.Input, "output", cmd.Output)
	return nil
}

// passthroughEncoder emits a packet's I420 planes unmodified, standing in
// for a real video codec.
type passthroughEncoder struct{}

func (passthroughEncoder) Encode(pkt *demux.Packet) ([]byte, error) {
	return pkt.Pixels, nil
}

// flatMuxer appends encoded frames to a single file back to back, standing
// in for a real container writer.
type flatMuxer struct {
	f *os.File
}

func (m *flatMuxer) WriteFrame(data []byte) error {
	_, err := m.f.Write(data)
	return err
}
