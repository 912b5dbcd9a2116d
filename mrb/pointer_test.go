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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIlog2(t *testing.T) {
	cases := map[uint64]uint8{
		1:    0,
		2:    1,
		4:    2,
		8:    3,
		4096: 12,
		4095: 11,
	}
	for in, want := range cases {
		assert.Equalf(t, want, ilog2(in), "ilog2(%d)", in)
	}
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, uint64(32), roundUp(1, 5))
	assert.Equal(t, uint64(32), roundUp(32, 5))
	assert.Equal(t, uint64(64), roundUp(33, 5))
	assert.Equal(t, uint64(0), roundUp(0, 5))
}

func TestPointerRoundTrip(t *testing.T) {
	const offBits, alignBits = 7, 5

	cases := []pointer{
		{seq: 1, off: 0},
		{seq: 1, off: 32},
		{seq: 12345, off: 4064},
		{seq: (uint64(1) << (64 - offBits)) - 1, off: 4064},
	}

	for _, p := range cases {
		packed := packPointer(offBits, alignBits, p)
		got := unpackPointer(offBits, alignBits, packed)
		require.Equal(t, p, got)
	}
}
