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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, dataSize, maxItemSize uint64) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "buffer.mrb")
	w, err := Create(path, dataSize, maxItemSize)
	require.NoError(t, err)
	t.Cleanup(func() { w.Shutdown() })
	return w, path
}

func TestCreateRejectsExistingFile(t *testing.T) {
	_, path := newTestBuffer(t, 4096, 4096)
	_, err := Create(path, 4096, 4096)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mrb"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSinglePublishRoundTrip(t *testing.T) {
	w, path := newTestBuffer(t, 4096, 4096)

	msg := []byte("hello, monitored ring buffer")
	buf, err := w.Reserve(uint64(len(msg)))
	require.NoError(t, err)
	copy(buf, msg)
	w.Commit()

	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	data, ok := r.Reveal()
	require.True(t, ok)
	require.NotNil(t, data)
	require.True(t, r.Check())
	require.Equal(t, msg, data[:len(msg)])
	require.True(t, r.Check())
	r.Release()

	// nothing new committed since: Reveal should report "keep polling".
	data, ok = r.Reveal()
	require.False(t, ok)
	require.Nil(t, data)
}

func TestShutdownDrainsThenTerminates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffer.mrb")
	w, err := Create(path, 4096, 4096)
	require.NoError(t, err)

	buf, err := w.Reserve(4)
	require.NoError(t, err)
	copy(buf, []byte("ping"))
	w.Commit()

	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	require.NoError(t, w.Shutdown())

	data, ok := r.Reveal()
	require.True(t, ok)
	require.NotNil(t, data, "the pending message must still be delivered before termination is reported")
	require.Equal(t, []byte("ping"), data[:4])
	r.Release()

	data, ok = r.Reveal()
	require.True(t, ok, "after drain, a terminated buffer reports ok with nil data")
	require.Nil(t, data)
}

func TestReserveRejectsOversizeMessage(t *testing.T) {
	w, _ := newTestBuffer(t, 4096, 4096)
	_, err := w.Reserve(4096)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestCommitWithoutReserveIsNoOp(t *testing.T) {
	w, path := newTestBuffer(t, 4096, 4096)
	w.Commit()
	w.Commit()

	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	_, ok := r.Reveal()
	require.False(t, ok)
}

func TestOverwriteUnderBackpressureAdvancesReaderPastLostMessages(t *testing.T) {
	w, path := newTestBuffer(t, 4096, 512)

	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	payload := make([]byte, 200)
	for i := 0; i < 64; i++ {
		buf, err := w.Reserve(uint64(len(payload)))
		require.NoError(t, err)
		copy(buf, payload)
		w.Commit()
	}

	// The reader never kept up; it must still observe a consistent,
	// non-corrupt message rather than stale overwritten bytes or a crash.
	data, ok := r.Reveal()
	require.True(t, ok)
	require.NotNil(t, data)
	require.True(t, r.Check())
}

func TestMultipleReadersObserveIndependently(t *testing.T) {
	w, path := newTestBuffer(t, 4096, 4096)

	buf, err := w.Reserve(5)
	require.NoError(t, err)
	copy(buf, []byte("first"))
	w.Commit()

	r1, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r1.Close() })
	r2, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r2.Close() })

	d1, ok := r1.Reveal()
	require.True(t, ok)
	require.Equal(t, []byte("first"), d1[:5])
	r1.Release()

	buf, err = w.Reserve(6)
	require.NoError(t, err)
	copy(buf, []byte("second"))
	w.Commit()

	d2, ok := r2.Reveal()
	require.True(t, ok)
	require.Equal(t, []byte("first"), d2[:5])
	r2.Release()

	d2, ok = r2.Reveal()
	require.True(t, ok)
	require.Equal(t, []byte("second"), d2[:6])
}
