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

package capture

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
)

// defaultBufferSize matches glgrab's DEFAULT_MRB_SIZE.
const defaultBufferSize = 256 << 20

// Config is a producer's buffer configuration, restoring
// glgrab_init_from_env's GLGRAB_MRB/GLGRAB_BUFSIZE/GLGRAB_MAXFRAME
// environment variables.
type Config struct {
	// Path is the mrb buffer file to create. Required.
	Path string
	// BufferSize is the ring's total data capacity.
	BufferSize datasize.ByteSize
	// MaxFrameSize bounds any single reservation; defaults to BufferSize.
	MaxFrameSize datasize.ByteSize
}

// ConfigFromEnv loads Config from the process environment, first seeding
// it from a .env file in the working directory if one exists (a missing
// .env is not an error, matching how the AlephTX feeder treats it as
// optional local override).
func ConfigFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("capture: load .env: %w", err)
	}

	path := os.Getenv("GLGRAB_MRB")
	if path == "" {
		return Config{}, fmt.Errorf("capture: GLGRAB_MRB is required")
	}

	bufSize, err := parseByteSizeEnv("GLGRAB_BUFSIZE", defaultBufferSize)
	if err != nil {
		return Config{}, err
	}

	maxFrame, err := parseByteSizeEnv("GLGRAB_MAXFRAME", uint64(bufSize))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Path:         path,
		BufferSize:   datasize.ByteSize(bufSize),
		MaxFrameSize: datasize.ByteSize(maxFrame),
	}, nil
}

func parseByteSizeEnv(name string, def uint64) (uint64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}

	var sz datasize.ByteSize
	if err := sz.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("capture: invalid %s=%q: %w", name, v, err)
	}
	return sz.Bytes(), nil
}
