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

// Package capture restores glgrab's producer-side recording loop: a
// state machine guarding buffer lifetime, wired to mrb.Writer, frame, and
// convert instead of the original's GL/EGL/GLX capture backend, which is
// out of scope here and replaced by the pluggable Source interface.
package capture

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/const86/glgrab/convert"
	"github.com/const86/glgrab/frame"
	"github.com/const86/glgrab/mrb"
)

type state int32

const (
	stateVirgin state = iota
	stateInitializing
	stateReady
	stateUsing
	stateFailed
)

// ErrBusy is returned when TakeFrame or Close is called while the
// Recorder is already servicing another call, mirroring glgrab's
// try_lock/release guard around concurrent entry into the same instance.
var ErrBusy = errors.New("capture: recorder busy")

// Source captures one frame's pixels, standing in for the GL/EGL/GLX
// interception glgrab_take_frame performs; this package only restores the
// buffer lifecycle and framing around that capture, not the capture
// itself.
type Source interface {
	// CaptureFrame returns padded_width*padded_height*4 bytes of BGRA
	// pixel data for a frame of the given padded dimensions.
	CaptureFrame(paddedWidth, paddedHeight uint32) ([]byte, error)
}

// Recorder is the producer side of one mrb buffer: it owns the Writer and
// walks it through glgrab's virgin -> initializing -> ready -> using ->
// failed lifecycle via compare-and-swap, so TakeFrame and Close can never
// race each other into the same buffer.
type Recorder struct {
	state     atomic.Int32
	sessionID uuid.UUID
	log       *zap.SugaredLogger
	startTime time.Time

	w *mrb.Writer
}

// NewRecorder creates the buffer described by cfg and transitions the
// Recorder to ready. It fails (and moves to failed) if the buffer already
// exists or cannot be created.
func NewRecorder(cfg Config, log *zap.SugaredLogger) (*Recorder, error) {
	r := &Recorder{
		sessionID: uuid.New(),
		log:       log,
		startTime: time.Now(),
	}
	if !r.state.CompareAndSwap(int32(stateVirgin), int32(stateInitializing)) {
		return nil, fmt.Errorf("capture: recorder already initializing")
	}

	w, err := mrb.Create(cfg.Path, uint64(cfg.BufferSize.Bytes()), uint64(cfg.MaxFrameSize.Bytes()))
	if err != nil {
		r.state.Store(int32(stateFailed))
		r.log.Errorw("failed to create buffer", "session", r.sessionID, "path", cfg.Path, "error", err)
		return nil, fmt.Errorf("capture: create %s: %w", cfg.Path, err)
	}

	r.w = w
	r.state.Store(int32(stateReady))
	r.log.Infow("recorder ready", "session", r.sessionID, "path", cfg.Path)
	return r, nil
}

func (r *Recorder) tryLock() bool {
	return r.state.CompareAndSwap(int32(stateReady), int32(stateUsing))
}

// TakeFrame captures one frame from src, converts it to I420 and commits
// it to the buffer in a single reservation. It returns ErrBusy if called
// concurrently with another TakeFrame or Close on the same Recorder.
func (r *Recorder) TakeFrame(src Source, width, height uint32) error {
	if !r.tryLock() {
		return ErrBusy
	}
	defer r.state.Store(int32(stateReady))

	paddedWidth := convert.Align(width, convert.WidthAlign)
	paddedHeight := convert.Align(height, convert.HeightAlign)

	h := frame.Header{
		Width:        width,
		Height:       height,
		PaddedWidth:  paddedWidth,
		PaddedHeight: paddedHeight,
	}

	buf, err := r.w.Reserve(frame.HeaderSize + h.PixelSize())
	if err != nil {
		return fmt.Errorf("capture: reserve %dx%d frame: %w", width, height, err)
	}

	bgra, err := src.CaptureFrame(paddedWidth, paddedHeight)
	if err != nil {
		return fmt.Errorf("capture: capture %dx%d frame: %w", width, height, err)
	}

	h.TimestampNS = uint64(time.Since(r.startTime).Nanoseconds())
	h.Marshal(buf)
	convert.BGRAToYUV420p(bgra, int(paddedWidth)*4, int(paddedWidth), int(paddedHeight), buf[frame.HeaderSize:])

	r.w.Commit()
	return nil
}

// Close shuts the buffer down, marking it terminated for any readers and
// releasing its mapping, then resets the Recorder to virgin so it could
// in principle be reused for a new buffer.
func (r *Recorder) Close() error {
	if !r.tryLock() {
		return ErrBusy
	}

	err := r.w.Shutdown()
	r.state.Store(int32(stateVirgin))
	r.log.Infow("recorder closed", "session", r.sessionID, "error", err)
	return err
}
