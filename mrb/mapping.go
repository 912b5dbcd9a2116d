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
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapping owns the virtual memory backing one open buffer: a header page,
// followed by the data region, followed by a mirror of the first
// maxItemSize bytes of the data region mapped back-to-back with it. Both
// halves of the mirror are backed by the same file pages, so a write
// through one is visible through the other; this is what lets Reserve and
// Reveal treat any maxItemSize-byte span starting anywhere in the data
// region as contiguous, even when it wraps past the end of the file.
//
// The technique is the same double-mmap trick pault.ag/go/go-diskring
// uses to make its ring transparent across the wrap point, scaled down to
// mirror only max_item_size bytes (the largest span any single item can
// occupy) instead of the whole ring.
type mapping struct {
	base        uintptr
	total       int
	region      []byte
	pageSize    uint64
	dataSize    uint64
	maxItemSize uint64
}

func (m *mapping) headerBytes() []byte {
	return m.region[:m.pageSize]
}

// dataBytes returns the data region followed by its mirror: indices
// [0, dataSize) are the real ring; [dataSize, dataSize+maxItemSize) alias
// bytes [0, maxItemSize) of it.
func (m *mapping) dataBytes() []byte {
	return m.region[m.pageSize:]
}

func (m *mapping) close() error {
	if m.region == nil {
		return nil
	}
	err := munmapAddr(m.base, m.total)
	m.region = nil
	return err
}

// mapLayout reserves address space for pageSize+dataSize+maxItemSize bytes
// and carves the header+data mapping and the mirror overlay out of it with
// two MAP_FIXED calls against fd.
func mapLayout(fd int, pageSize, dataSize, maxItemSize uint64, prot int) (*mapping, error) {
	bodyLen := int(pageSize + dataSize)
	total := bodyLen + int(maxItemSize)

	base, err := mmapReserve(total)
	if err != nil {
		return nil, fmt.Errorf("reserve %d bytes: %w", total, err)
	}

	if err := mmapFixed(base, bodyLen, prot, fd, 0); err != nil {
		munmapAddr(base, total)
		return nil, fmt.Errorf("map header+data: %w", err)
	}

	if maxItemSize > 0 {
		if err := mmapFixed(base+uintptr(bodyLen), int(maxItemSize), prot, fd, int64(pageSize)); err != nil {
			munmapAddr(base, total)
			return nil, fmt.Errorf("map mirror: %w", err)
		}
	}

	return &mapping{
		base:        base,
		total:       total,
		region:      addrSlice(base, total),
		pageSize:    pageSize,
		dataSize:    dataSize,
		maxItemSize: maxItemSize,
	}, nil
}

// createMapping lays out a brand new buffer file: a pageSize header page
// followed by dataSize bytes of ring, both rounded up to the page size,
// then maps it with the mirror overlay described on mapping.
func createMapping(path string, dataSize, maxItemSize uint64) (*mapping, error) {
	pageSize := uint64(os.Getpagesize())
	dataSize = roundUp(dataSize, ilog2(pageSize))
	maxItemSize = roundUp(maxItemSize, ilog2(pageSize))

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o644)
	if err != nil {
		if err == unix.EEXIST {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(pageSize+dataSize)); err != nil {
		unix.Unlink(path)
		return nil, fmt.Errorf("%w: truncate %s: %v", ErrIO, path, err)
	}

	m, err := mapLayout(fd, pageSize, dataSize, maxItemSize, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		unix.Unlink(path)
		return nil, fmt.Errorf("%w: %s: %v", ErrMappingFailed, path, err)
	}
	return m, nil
}

// openMapping maps an existing buffer file for reading. It reads the
// header with a plain pread before mapping anything, so a buffer that
// hasn't published active yet can be rejected without committing address
// space for it.
func openMapping(path string) (*mapping, headerFields, error) {
	var fields headerFields

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		if err == unix.ENOENT {
			return nil, fields, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fields, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fields, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}

	hdrBuf := make([]byte, headerWireSize)
	if _, err := unix.Pread(fd, hdrBuf, 0); err != nil {
		return nil, fields, fmt.Errorf("%w: read header %s: %v", ErrIO, path, err)
	}
	fields = decodeHeader(hdrBuf)
	if fields.active == 0 {
		return nil, fields, fmt.Errorf("%w: %s", ErrNotReadyYet, path)
	}

	pageSize := uint64(os.Getpagesize())
	dataSize := uint64(st.Size) - pageSize

	m, err := mapLayout(fd, pageSize, dataSize, fields.maxItemSize, unix.PROT_READ)
	if err != nil {
		return nil, fields, fmt.Errorf("%w: %s: %v", ErrMappingFailed, path, err)
	}
	return m, fields, nil
}
