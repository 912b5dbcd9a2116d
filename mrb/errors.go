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

import "errors"

// Error kinds returned by mrb operations, per the error taxonomy: callers
// distinguish them with errors.Is. The library never panics on misuse or
// on a failing syscall; every failure is returned to the caller.
var (
	// ErrAlreadyExists is returned by Create when path is already in use.
	ErrAlreadyExists = errors.New("mrb: file already exists")

	// ErrNotFound is returned by Open when the file is missing.
	ErrNotFound = errors.New("mrb: file not found")

	// ErrIO is returned by Open/Create on unrelated I/O failures.
	ErrIO = errors.New("mrb: i/o error")

	// ErrNotReadyYet is returned by Open when the header shows active == 0.
	// It is safe to retry Open later.
	ErrNotReadyYet = errors.New("mrb: buffer not active yet")

	// ErrMappingFailed is returned by Create/Open when the kernel rejects
	// the mirror-mapping layout. This is fatal for the attempted handle.
	ErrMappingFailed = errors.New("mrb: mirror mapping rejected by kernel")

	// ErrTooLarge is returned by Reserve when size cannot be placed in the
	// ring without violating the mirror-span bound.
	ErrTooLarge = errors.New("mrb: message too large for buffer")
)
