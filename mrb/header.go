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

package mrb

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// headerWireSize is the on-disk size of the fixed header fields, before
// padding out to a page boundary. Little-endian throughout.
//
//	offset  size  field
//	0       4     active        (u32)
//	4       2     align_bits    (i16)
//	6       2     off_bits      (i16)
//	8       8     max_item_size (u64)
//	16      8     head          (packed pointer, u64)
//	24      8     tail          (packed pointer, u64)
const headerWireSize = 4 + 2 + 2 + 8 + 8 + 8

// header is a typed view over the first headerWireSize bytes of a buffer's
// mapped header page. head and tail are accessed atomically per the
// ordering contract; active, align_bits, off_bits and max_item_size are
// frozen at creation and only active transitions need atomicity.
type header struct {
	bytes []byte
}

func (h header) active() bool {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&h.bytes[0]))) != 0
}

// setActiveRelease publishes a transition of the active flag. Callers rely
// on this being a release so that everything published before shutdown is
// visible to a reader that observes active == 0.
func (h header) setActiveRelease(v bool) {
	var x uint32
	if v {
		x = 1
	}
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&h.bytes[0])), x)
}

func (h header) alignBits() uint8 {
	return uint8(int16(binary.LittleEndian.Uint16(h.bytes[4:6])))
}

func (h header) offBits() uint8 {
	return uint8(int16(binary.LittleEndian.Uint16(h.bytes[6:8])))
}

// setLayout freezes the layout parameters at creation time. Never called
// again after active is published.
func (h header) setLayout(alignBits, offBits uint8) {
	binary.LittleEndian.PutUint16(h.bytes[4:6], uint16(alignBits))
	binary.LittleEndian.PutUint16(h.bytes[6:8], uint16(offBits))
}

func (h header) maxItemSize() uint64 {
	return binary.LittleEndian.Uint64(h.bytes[8:16])
}

func (h header) setMaxItemSize(v uint64) {
	binary.LittleEndian.PutUint64(h.bytes[8:16], v)
}

// head/tail are packed pointers, loaded/stored atomically per the ordering
// contract in the concurrency model: head motion is a reclamation hint and
// need not synchronize; tail publishes the item and its framing bytes.

func (h header) head() uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&h.bytes[16])))
}

func (h header) setHeadRelaxed(v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&h.bytes[16])), v)
}

func (h header) tail() uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&h.bytes[24])))
}

func (h header) setTailRelease(v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&h.bytes[24])), v)
}

// decodeHeader parses a freshly-read header buffer (e.g. via ReadAt, before
// mapping) into its typed fields, for the liveness check Open performs
// prior to mmap.
type headerFields struct {
	active      uint32
	alignBits   int16
	offBits     int16
	maxItemSize uint64
	head        uint64
	tail        uint64
}

func decodeHeader(b []byte) headerFields {
	return headerFields{
		active:      binary.LittleEndian.Uint32(b[0:4]),
		alignBits:   int16(binary.LittleEndian.Uint16(b[4:6])),
		offBits:     int16(binary.LittleEndian.Uint16(b[6:8])),
		maxItemSize: binary.LittleEndian.Uint64(b[8:16]),
		head:        binary.LittleEndian.Uint64(b[16:24]),
		tail:        binary.LittleEndian.Uint64(b[24:32]),
	}
}
