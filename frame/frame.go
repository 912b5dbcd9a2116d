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

// Package frame defines the wire layout of a single captured frame as it
// is written into and read back out of an mrb buffer: a fixed header
// (timestamp plus real and padded dimensions) immediately followed by the
// pixel payload, restoring glgrab_frame from the original capture format.
package frame

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the on-disk size of Header, little-endian, unpadded.
const HeaderSize = 8 + 4 + 4 + 4 + 4

// Header is the fixed metadata glgrab_frame carries ahead of pixel data.
// Width/Height are the image's real dimensions; PaddedWidth/PaddedHeight
// are rounded up per convert.Align and describe the actual pixel buffer
// layout, since most capture/encode paths require block-aligned frames.
type Header struct {
	TimestampNS  uint64
	Width        uint32
	Height       uint32
	PaddedWidth  uint32
	PaddedHeight uint32
}

// Marshal encodes h into the first HeaderSize bytes of dst, which must be
// at least that long.
func (h Header) Marshal(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:8], h.TimestampNS)
	binary.LittleEndian.PutUint32(dst[8:12], h.Width)
	binary.LittleEndian.PutUint32(dst[12:16], h.Height)
	binary.LittleEndian.PutUint32(dst[16:20], h.PaddedWidth)
	binary.LittleEndian.PutUint32(dst[20:24], h.PaddedHeight)
}

// UnmarshalHeader decodes a Header from the first HeaderSize bytes of src.
func UnmarshalHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, fmt.Errorf("frame: header needs %d bytes, got %d", HeaderSize, len(src))
	}
	return Header{
		TimestampNS:  binary.LittleEndian.Uint64(src[0:8]),
		Width:        binary.LittleEndian.Uint32(src[8:12]),
		Height:       binary.LittleEndian.Uint32(src[12:16]),
		PaddedWidth:  binary.LittleEndian.Uint32(src[16:20]),
		PaddedHeight: binary.LittleEndian.Uint32(src[20:24]),
	}, nil
}

// PixelSize returns the number of bytes of I420 pixel data that should
// follow the header for a frame of this header's padded dimensions: a
// full-resolution luma plane plus two quarter-resolution chroma planes.
func (h Header) PixelSize() uint64 {
	luma := uint64(h.PaddedWidth) * uint64(h.PaddedHeight)
	chroma := luma / 4
	return luma + 2*chroma
}

// Encode writes header followed by pixels into a single buffer sized for
// both, the layout a Writer.Reserve call should be sized to hold.
func Encode(h Header, pixels []byte) []byte {
	buf := make([]byte, HeaderSize+len(pixels))
	h.Marshal(buf)
	copy(buf[HeaderSize:], pixels)
	return buf
}

// Decode splits a buffer previously produced by Encode (or revealed
// directly from an mrb.Reader) back into its header and pixel payload.
// The returned pixel slice aliases src; callers that need to retain it
// past the next mrb Release must copy it first.
func Decode(src []byte) (Header, []byte, error) {
	h, err := UnmarshalHeader(src)
	if err != nil {
		return Header{}, nil, err
	}
	want := HeaderSize + int(h.PixelSize())
	if len(src) < want {
		return Header{}, nil, fmt.Errorf("frame: payload needs %d bytes, got %d", want, len(src))
	}
	return h, src[HeaderSize:want], nil
}
