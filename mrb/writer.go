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

import "fmt"

// align is the alignment every reservation's size is rounded up to before
// computing the next item's offset, matching the original's
// __BIGGEST_ALIGNMENT__ fallback of 32 on x86-64. See SPEC_FULL.md's Open
// Questions: this package always creates buffers with align_bits fixed at
// ilog2(align), though Reader adapts to whatever align_bits an existing
// buffer was created with.
const align = 32

// Writer is the single-writer half of a buffer. It never blocks and makes
// no system calls once created: Reserve and Commit only touch the mapped
// header and data region.
//
// A Writer is not safe for concurrent use by multiple goroutines; the
// protocol assumes exactly one writer per buffer, matching spec.md's
// single-writer invariant.
type Writer struct {
	path string
	m    *mapping
	hdr  header

	alignBits uint8
	offBits   uint8
	dataSize  uint64
	dataOff   uint64

	next    pointer
	pending bool
}

// Create lays out a new buffer file of size bytes of ring capacity, sized
// so that no single reservation larger than maxItemSize can be made to fit.
// The file must not already exist.
func Create(path string, size, maxItemSize uint64) (*Writer, error) {
	m, err := createMapping(path, size, maxItemSize)
	if err != nil {
		return nil, err
	}

	alignBits := ilog2(align)
	offBits := ilog2(m.dataSize) - alignBits
	dataOff := roundUp(8, alignBits)

	hdr := header{bytes: m.headerBytes()}
	hdr.setLayout(alignBits, offBits)
	hdr.setMaxItemSize(m.maxItemSize)
	hdr.setTailRelease(packPointer(offBits, alignBits, pointer{seq: 1, off: 0}))
	hdr.setActiveRelease(true)

	return &Writer{
		path:      path,
		m:         m,
		hdr:       hdr,
		alignBits: alignBits,
		offBits:   offBits,
		dataSize:  m.dataSize,
		dataOff:   dataOff,
	}, nil
}

// Reserve allocates space for a size-byte message at the tail of the ring
// and returns a slice over it for the caller to fill in place. Any old
// messages the reservation overlaps or covers are reclaimed by advancing
// the head; a slow reader may lose messages as a result, never the writer.
//
// The slice returned by Reserve is invalidated by the next call to Reserve
// or by Shutdown; write only within it and call Commit before reserving
// again for it to become visible to readers.
func (w *Writer) Reserve(size uint64) ([]byte, error) {
	data := w.m.dataBytes()

	tail := unpackPointer(w.offBits, w.alignBits, w.hdr.tail())
	next := tail
	next.off += w.dataOff + roundUp(size, w.alignBits)

	if next.off >= w.dataSize {
		next.off -= w.dataSize

		if next.off >= w.m.maxItemSize || next.off > tail.off {
			return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
		}
	}

	next.seq++
	if next.seq<<w.offBits == 0 {
		next.seq++
	}

	headp := w.hdr.head()
	for headp != 0 {
		head := unpackPointer(w.offBits, w.alignBits, headp)
		if head.off == tail.off {
			headp = 0
			break
		}

		if tail.off < next.off && (head.off < tail.off || next.off <= head.off) {
			break
		}
		if next.off <= head.off && head.off < tail.off {
			break
		}

		headp = readItemNextPlain(data, head.off)
	}

	w.hdr.setHeadRelaxed(headp)
	storeItemNextRelease(data, tail.off, packPointer(w.offBits, w.alignBits, next))

	w.next = next
	w.pending = true

	start := tail.off + w.dataOff
	return data[start : start+size : start+size], nil
}

// Commit publishes the message filled in after the last Reserve call,
// making it visible to readers. It is a no-op if called without a prior
// Reserve, matching mrb_commit's "subsequent call without reservation" rule.
func (w *Writer) Commit() {
	if !w.pending {
		return
	}

	packed := packPointer(w.offBits, w.alignBits, w.next)
	if w.hdr.head() == 0 {
		head := w.hdr.tail()
		w.hdr.setTailRelease(packed)
		w.hdr.setHeadRelaxed(head)
	} else {
		w.hdr.setTailRelease(packed)
	}

	w.pending = false
}

// Shutdown marks the buffer terminated, so that readers polling Reveal
// observe it and stop polling, then unmaps it. The caller is responsible
// for removing the file; it is safe to unlink it any time after Create
// returns, since new readers only need the file to exist long enough to
// open and mmap it.
func (w *Writer) Shutdown() error {
	w.hdr.setActiveRelease(false)
	if err := w.m.close(); err != nil {
		return fmt.Errorf("%w: unmap %s: %v", ErrIO, w.path, err)
	}
	return nil
}
