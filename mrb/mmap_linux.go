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
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

var errMmapFixedMoved = errors.New("mrb: kernel placed MAP_FIXED mapping at an unrequested address")

// mmapReserve reserves length bytes of address space with no backing and no
// access, so that two subsequent MAP_FIXED mappings can be carved out of it
// at fixed offsets without racing another mmap for the same addresses.
func mmapReserve(length int) (uintptr, error) {
	addr, _, errno := unix.Syscall6(unix.SYS_MMAP, 0, uintptr(length),
		uintptr(unix.PROT_NONE), uintptr(unix.MAP_ANONYMOUS|unix.MAP_PRIVATE), ^uintptr(0), 0)
	if errno != 0 {
		return 0, errno
	}
	return addr, nil
}

// mmapFixed maps fd at the given file offset into the address range
// [addr, addr+length), which must already be reserved (or itself already
// mapped, for a mirror overlay). golang.org/x/sys/unix.Mmap has no way to
// request a fixed address, so this goes straight to the syscall the way the
// teacher's syscall.go does, substituting unix's portable constants for raw
// syscall numbers.
func mmapFixed(addr uintptr, length int, prot int, fd int, offset int64) error {
	got, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(length),
		uintptr(prot), uintptr(unix.MAP_FIXED|unix.MAP_SHARED), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return errno
	}
	if got != addr {
		return errMmapFixedMoved
	}
	return nil
}

func munmapAddr(addr uintptr, length int) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, uintptr(length), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// addrSlice turns a raw mapped address into a []byte spanning it. Valid
// only while the mapping backing it is live; callers must not let the
// slice escape past a call to munmapAddr on the same address.
func addrSlice(addr uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}
