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

// Every reserved item is prefixed, at its offset in the data region, by an
// 8-byte packed pointer to where the item reserved after it begins, written
// by Reserve when the item itself is reserved. Readers synchronize on this word in Release to
// learn the next item exists and is safe to reveal, so stores to it use a
// release and loads an acquire, same as head/tail in header.go. The writer's
// own head-reclamation scan reads the same word but needs no synchronization
// against itself, so it goes through plain encoding/binary instead.

func loadItemNextAcquire(data []byte, off uint64) uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&data[off])))
}

func storeItemNextRelease(data []byte, off uint64, v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&data[off])), v)
}

func readItemNextPlain(data []byte, off uint64) uint64 {
	return binary.LittleEndian.Uint64(data[off : off+8])
}
