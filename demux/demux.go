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

// Package demux restores glgrab's AVInputFormat read_packet: a consumer
// that turns an mrb stream of captured frames into a presentation-ordered
// packet stream. A buffer's frames carry a capture timestamp, not a
// presentation time; once a caller-supplied frame rate is applied and
// timestamps are rounded to ticks, two frames can land on the same tick
// or arrive out of order relative to it, so one packet is always held
// back and compared against the next before either is emitted.
package demux

import (
	"errors"
	"io"
	"math"

	"github.com/const86/glgrab/frame"
	"github.com/const86/glgrab/mrb"
)

// ErrWouldBlock is returned by ReadPacket when no new frame is available
// yet. Demuxer never sleeps; the caller owns the backoff between calls.
var ErrWouldBlock = errors.New("demux: no packet available yet")

// Rational is a plain numerator/denominator pair, standing in for
// AVRational.
type Rational struct {
	Num, Den int64
}

func (r Rational) float64() float64 { return float64(r.Num) / float64(r.Den) }

// Packet is one presentation-ordered output frame.
type Packet struct {
	PTS    int64
	Header frame.Header
	Pixels []byte
}

// Demuxer wraps an mrb.Reader with PTS reordering and a single-stream,
// fixed-dimension assumption: once the first frame establishes the
// stream's width/height, later frames of a different size are skipped
// rather than switching streams, matching read_packet's behavior.
type Demuxer struct {
	r         *mrb.Reader
	framerate Rational

	haveStream bool
	width      uint32
	height     uint32

	havePTS bool
	lastPTS int64

	pending *Packet
}

// Open opens path for reading and reorders its frames as if played back
// at framerate ticks per second.
func Open(path string, framerate Rational) (*Demuxer, error) {
	r, err := mrb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Demuxer{r: r, framerate: framerate}, nil
}

// Close closes the underlying reader.
func (d *Demuxer) Close() error {
	return d.r.Close()
}

func (d *Demuxer) tick(ns uint64) int64 {
	return int64(math.Round(float64(ns) * d.framerate.float64() / 1e9))
}

// ReadPacket returns the next packet in presentation order. It returns
// ErrWouldBlock if the writer hasn't committed anything new, and io.EOF
// once the buffer has been shut down and every held-back packet has been
// flushed.
func (d *Demuxer) ReadPacket() (*Packet, error) {
	for {
		data, ok := d.r.Reveal()
		if !ok {
			return nil, ErrWouldBlock
		}

		if data == nil {
			d.r.Release()
			if d.pending != nil {
				out := d.pending
				d.pending = nil
				return out, nil
			}
			return nil, io.EOF
		}

		h, pixels, err := frame.Decode(data)
		if err != nil || !d.r.Check() {
			d.r.Release()
			continue
		}

		if d.haveStream && (h.Width != d.width || h.Height != d.height) {
			d.r.Release()
			continue
		}

		pts := d.tick(h.TimestampNS)
		if d.havePTS && pts <= d.lastPTS {
			d.r.Release()
			continue
		}

		// Copy out before releasing: Release invalidates data/pixels.
		pixelsCopy := make([]byte, len(pixels))
		copy(pixelsCopy, pixels)
		if !d.r.Check() {
			d.r.Release()
			continue
		}
		d.r.Release()

		if !d.haveStream {
			d.haveStream = true
			d.width, d.height = h.Width, h.Height
		}

		cand := &Packet{PTS: pts, Header: h, Pixels: pixelsCopy}

		if d.pending == nil {
			d.pending = cand
			continue
		}

		if cand.PTS > d.pending.PTS {
			out := d.pending
			d.pending = cand
			d.havePTS, d.lastPTS = true, out.PTS
			return out, nil
		}

		// cand didn't advance the tick: emit whichever of the two is
		// held, and drop the other, same tie-break read_packet makes
		// by comparing both candidates against the tick boundary.
		out := d.pending
		d.pending = nil
		d.havePTS, d.lastPTS = true, out.PTS
		return out, nil
	}
}
