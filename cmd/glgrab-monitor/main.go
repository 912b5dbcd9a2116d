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

// Command glgrab-monitor restores monitor.c: it opens a buffer and prints
// each frame's timestamp and dimensions as they arrive, until the buffer
// is shut down.
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
	"golang.org/x/sync/errgroup"

	"github.com/const86/glgrab/frame"
	"github.com/const86/glgrab/mrb"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	Path string
}

var rootCmd = &cobra.Command{
	Use:   "glgrab-monitor MRB-FILE",
	Short: "Print frame timestamps and dimensions as they are captured",
	Args:  cobra.ExactArgs(1),
	Run: func(rawCmd *cobra.Command, args []string) {
		cmd.Path = args[0]
		if err := run(cmd); err != nil {
			if errors.Is(err, Interrupted{}) {
				return
			}
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd Cmd) error {
	r, err := mrb.Open(cmd.Path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", cmd.Path, err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		defer cancel()
		return monitor(ctx, r)
	})
	wg.Go(func() error {
		err := WaitInterrupted(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return wg.Wait()
}

func monitor(ctx context.Context, r *mrb.Reader) error {
	const pollInterval = 10 * time.Millisecond

	for {
		data, ok := r.Reveal()
		for !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollInterval):
			}
			data, ok = r.Reveal()
		}

		if data == nil {
			return nil
		}

		h, err := frame.UnmarshalHeader(data)
		if err == nil && r.Check() {
			fmt.Printf("%.03f %dx%d\n", float64(h.TimestampNS)*1e-9, h.Width, h.Height)
		}

		r.Release()
	}
}

type Interrupted struct {
	os.Signal
}

func (m Interrupted) Error() string {
	return m.String()
}

// WaitInterrupted blocks until either SIGINT or SIGTERM signal is received
// or the provided context is canceled.
func WaitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)

	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case v := <-ch:
		return Interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}
