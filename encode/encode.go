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

// Package encode restores export.c's swarm: packets are encoded
// concurrently across a worker pool but muxed in the order they were
// read, the same guarantee swarm_item's next_out linked list gives the
// pthread version. Here that ordering comes from a channel of
// per-submission result channels instead of a linked list behind a
// spinlock.
package encode

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/const86/glgrab/demux"
)

// Encoder turns one demuxed packet into an encoded frame's bytes. There
// is no real codec binding in this pack's dependency set; callers supply
// one (e.g. wrapping an external encoder process or a pure-Go codec).
type Encoder interface {
	Encode(pkt *demux.Packet) ([]byte, error)
}

// Muxer receives encoded frames in presentation order and writes them to
// the output container.
type Muxer interface {
	WriteFrame(data []byte) error
}

// Source is satisfied by *demux.Demuxer; factored out so Pool can be
// tested against a fake.
type Source interface {
	ReadPacket() (*demux.Packet, error)
}

// Pool runs a bounded number of encoder workers against a single Source,
// and writes their output to a single Muxer in the order packets were
// read, never out of order, regardless of which worker finishes first.
type Pool struct {
	Source  Source
	Encoder Encoder
	Muxer   Muxer
	Workers int
}

type job struct {
	pkt *demux.Packet
	out chan result
}

type result struct {
	data []byte
	err  error
}

// Run drives the pool until Source is exhausted (io.EOF), the context is
// canceled, or a worker or the muxer returns an error.
func (p *Pool) Run(ctx context.Context) error {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan job)
	order := make(chan chan result, workers*2)

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				data, err := p.Encoder.Encode(j.pkt)
				j.out <- result{data: data, err: err}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		defer close(order)

		b := backoff.ExponentialBackOff{
			InitialInterval:     backoff.DefaultInitialInterval,
			RandomizationFactor: backoff.DefaultRandomizationFactor,
			Multiplier:          backoff.DefaultMultiplier,
			MaxInterval:         time.Second,
		}
		b.Reset()

		for {
			pkt, err := p.Source.ReadPacket()
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case errors.Is(err, demux.ErrWouldBlock):
				select {
				case <-time.After(b.NextBackOff()):
				case <-ctx.Done():
					return ctx.Err()
				}
				continue
			case err != nil:
				return err
			}
			b.Reset()

			out := make(chan result, 1)
			select {
			case jobs <- job{pkt: pkt, out: out}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case order <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		for out := range order {
			select {
			case res := <-out:
				if res.err != nil {
					return res.err
				}
				if err := p.Muxer.WriteFrame(res.data); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return g.Wait()
}
