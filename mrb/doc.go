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

// Package mrb implements the Monitored Ring Buffer: a single-writer,
// many-reader, wait-free, shared-memory queue of variable-length binary
// messages, backed by a memory-mapped file.
//
// The writer never blocks. If readers fall behind, the oldest queued
// messages are silently overwritten to keep publish latency bounded.
// Readers do not dequeue; they observe the ring and must verify, after
// the fact, that what they read was not overwritten mid-read. A reader
// calls Reveal to find the next message, reads its bytes directly (no
// copy), calls Check one or more times to validate the read, then calls
// Release to advance past it.
//
// Exactly one process may write to a given buffer at a time; any number
// of processes may read concurrently, each through its own Reader and
// cursor. None of Reserve, Commit, Reveal, Check, or Release block or
// make system calls after the buffer is mapped.
package mrb
