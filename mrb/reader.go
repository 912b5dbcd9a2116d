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

// Reader is one observer's view onto a buffer. It does not dequeue: it
// tracks a cursor into the ring and lets the caller look, verify, and move
// on. Any number of Readers, in any number of processes, may observe the
// same buffer concurrently; each has its own cursor and none of them
// coordinate with each other or slow the writer down.
//
// A Reader is not safe for concurrent use by multiple goroutines.
type Reader struct {
	path string
	m    *mapping
	hdr  header

	alignBits uint8
	offBits   uint8
	dataOff   uint64

	next pointer
}

// Open maps an existing buffer for reading. It fails with ErrNotReadyYet if
// the buffer's creator hasn't published it active yet; that is safe to
// retry later, since the file itself is created before active is set.
func Open(path string) (*Reader, error) {
	m, fields, err := openMapping(path)
	if err != nil {
		return nil, err
	}

	alignBits := uint8(fields.alignBits)
	offBits := uint8(fields.offBits)

	return &Reader{
		path:      path,
		m:         m,
		hdr:       header{bytes: m.headerBytes()},
		alignBits: alignBits,
		offBits:   offBits,
		dataOff:   roundUp(8, alignBits),
	}, nil
}

// Close unmaps the buffer. It does not affect the writer or other readers.
func (r *Reader) Close() error {
	if err := r.m.close(); err != nil {
		return fmt.Errorf("%w: unmap %s: %v", ErrIO, r.path, err)
	}
	return nil
}

// Check reports whether the message last returned by Reveal is still
// valid, i.e. has not been overwritten by the writer since. A caller that
// needs to read the message's bytes must Check before trusting them and
// should Check again after reading, since the writer can overwrite data out
// from under an in-progress read at any time.
func (r *Reader) Check() bool {
	if r.next.seq == 0 {
		return false
	}

	head := unpackPointer(r.offBits, r.alignBits, r.hdr.head())
	if head.seq == 0 {
		return false
	}
	if r.next.seq >= head.seq {
		return true
	}

	tail := unpackPointer(r.offBits, r.alignBits, r.hdr.tail())
	return r.next.seq < tail.seq && tail.seq < head.seq
}

// Reveal finds the next message in the buffer. It returns ok == false if
// nothing new has been committed yet; the caller should back off and call
// Reveal again later. It returns ok == true with data == nil if the buffer
// has been shut down and fully drained, a signal to stop polling for good.
// Otherwise it returns ok == true and a slice over the next message's
// bytes, valid until the following Release.
//
// Reveal must not be called again without an intervening Release.
func (r *Reader) Reveal() (data []byte, ok bool) {
	if !r.Check() {
		r.next = unpackPointer(r.offBits, r.alignBits, r.hdr.head())
	}

	tail := unpackPointer(r.offBits, r.alignBits, r.hdr.tail())
	if r.next.seq == 0 || r.next.seq == tail.seq {
		return nil, !r.hdr.active()
	}

	d := r.m.dataBytes()
	start := r.next.off + r.dataOff
	return d[start : start+r.m.maxItemSize], true
}

// Release forgets the message last returned by Reveal and advances past
// it, so the next Reveal looks for the one after it. Callers should read
// and Check a message's data before releasing it, since Release invalidates
// the slice Reveal returned.
func (r *Reader) Release() {
	d := r.m.dataBytes()
	next := unpackPointer(r.offBits, r.alignBits, loadItemNextAcquire(d, r.next.off))

	if r.Check() {
		r.next = next
	} else {
		r.next = unpackPointer(r.offBits, r.alignBits, r.hdr.head())
	}
}
