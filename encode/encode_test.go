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

package encode

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/const86/glgrab/demux"
)

type fakeSource struct {
	mu      sync.Mutex
	packets []*demux.Packet
	i       int
}

func (f *fakeSource) ReadPacket() (*demux.Packet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.i >= len(f.packets) {
		return nil, io.EOF
	}
	p := f.packets[f.i]
	f.i++
	return p, nil
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(pkt *demux.Packet) ([]byte, error) {
	return []byte(fmt.Sprintf("encoded:%d", pkt.PTS)), nil
}

type fakeMuxer struct {
	mu     sync.Mutex
	frames [][]byte
}

func (m *fakeMuxer) WriteFrame(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, append([]byte(nil), data...))
	return nil
}

func TestPoolPreservesSubmissionOrder(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 20; i++ {
		src.packets = append(src.packets, &demux.Packet{PTS: int64(i)})
	}

	mux := &fakeMuxer{}
	pool := &Pool{Source: src, Encoder: fakeEncoder{}, Muxer: mux, Workers: 4}

	require.NoError(t, pool.Run(context.Background()))
	require.Len(t, mux.frames, 20)
	for i, f := range mux.frames {
		require.Equal(t, fmt.Sprintf("encoded:%d", i), string(f))
	}
}
