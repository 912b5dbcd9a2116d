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

package capture

import (
	"path/filepath"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/const86/glgrab/frame"
	"github.com/const86/glgrab/mrb"
)

type fakeSource struct {
	n int
}

func (f *fakeSource) CaptureFrame(paddedWidth, paddedHeight uint32) ([]byte, error) {
	f.n++
	return make([]byte, int(paddedWidth)*int(paddedHeight)*4), nil
}

func TestRecorderTakeFrameRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.mrb")
	log := zaptest.NewLogger(t).Sugar()

	cfg := Config{
		Path:         path,
		BufferSize:   datasize.ByteSize(1 << 20),
		MaxFrameSize: datasize.ByteSize(1 << 20),
	}

	rec, err := NewRecorder(cfg, log)
	require.NoError(t, err)

	src := &fakeSource{}
	require.NoError(t, rec.TakeFrame(src, 100, 50))
	require.Equal(t, 1, src.n)

	r, err := mrb.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	data, ok := r.Reveal()
	require.True(t, ok)
	require.NotNil(t, data)

	h, _, err := frame.Decode(data)
	require.NoError(t, err)
	require.Equal(t, uint32(100), h.Width)
	require.Equal(t, uint32(50), h.Height)

	require.NoError(t, rec.Close())
}
