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

package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		TimestampNS:  1234567890123,
		Width:        1920,
		Height:       1080,
		PaddedWidth:  1920,
		PaddedHeight: 1080,
	}

	buf := make([]byte, HeaderSize)
	h.Marshal(buf)

	got, err := UnmarshalHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{TimestampNS: 42, Width: 4, Height: 2, PaddedWidth: 4, PaddedHeight: 2}
	pixels := make([]byte, h.PixelSize())
	for i := range pixels {
		pixels[i] = byte(i)
	}

	buf := Encode(h, pixels)
	gotH, gotPixels, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, h, gotH)
	require.Equal(t, pixels, gotPixels)
}

func TestUnmarshalHeaderRejectsShortBuffer(t *testing.T) {
	_, err := UnmarshalHeader(make([]byte, HeaderSize-1))
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedPixels(t *testing.T) {
	h := Header{Width: 4, Height: 2, PaddedWidth: 4, PaddedHeight: 2}
	buf := Encode(h, make([]byte, h.PixelSize()))
	_, _, err := Decode(buf[:len(buf)-1])
	require.Error(t, err)
}
