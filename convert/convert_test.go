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

package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.Equal(t, uint32(32), Align(1, WidthAlign))
	assert.Equal(t, uint32(32), Align(32, WidthAlign))
	assert.Equal(t, uint32(64), Align(33, WidthAlign))
	assert.Equal(t, uint32(2), Align(1, HeightAlign))
	assert.Equal(t, uint32(2), Align(2, HeightAlign))
}

func solidBGRA(width, height int, b, g, r, a byte) []byte {
	buf := make([]byte, width*height*4)
	for i := 0; i < width*height; i++ {
		buf[i*4+0] = b
		buf[i*4+1] = g
		buf[i*4+2] = r
		buf[i*4+3] = a
	}
	return buf
}

func TestBGRAToYUV420pBlackFrame(t *testing.T) {
	const w, h = 4, 2
	bgra := solidBGRA(w, h, 0, 0, 0, 0xff)
	dst := make([]byte, w*h+w*h/2)

	BGRAToYUV420p(bgra, w*4, w, h, dst)

	ySize := w * h
	for _, y := range dst[:ySize] {
		require.Equal(t, uint8(16), y, "black BGRA should map to luma 16")
	}
	for _, c := range dst[ySize:] {
		require.Equal(t, uint8(128), c, "achromatic input should map to neutral chroma 128")
	}
}

func TestBGRAToYUV420pGrayFrame(t *testing.T) {
	const w, h = 4, 2
	bgra := solidBGRA(w, h, 128, 128, 128, 0xff)
	dst := make([]byte, w*h+w*h/2)

	BGRAToYUV420p(bgra, w*4, w, h, dst)

	ySize := w * h
	for _, c := range dst[ySize:] {
		require.Equal(t, uint8(128), c)
	}
}
