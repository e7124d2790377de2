// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


package fsutil

import (
	"fmt"
	"io/fs"
	"math/rand/v2"

	"go.uber.org/multierr"
)

type ChainFSOption func(*chainFS)

// WithChainFilesystems sets the file systems to chain.
func WithChainFilesystems(fs ...fs.FS) ChainFSOption {
	return func(c *chainFS) {
		c.fs = append(c.fs, fs...)
	}
}

// WithChainRandOrder sets the file systems to chain in random order.
func WithChainRandOrder() ChainFSOption {
	return func(c *chainFS) {
		c.rand = true
	}
}

// NewChainFS creates a new chain filesystem.
//
// The chain filesystem chains multiple file systems together. It will try to
// open a file in the first file system. If it fails, it will try the next one,
// and so on. If all file systems fail, it will return all errors combined.
func NewChainFS(opts ...ChainFSOption) fs.FS {
	f := &chainFS{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type chainFS struct {
	fs   []fs.FS
	rand bool
}

// Open implements the fs.FS interface.
func (c *chainFS) Open(name string) (fs.File, error) {
	return chainTry(c, "open", name, func(f fs.FS) (fs.File, error) { return f.Open(name) })
}

// Stat implements the fs.StatFS interface.
func (c *chainFS) Stat(name string) (fs.FileInfo, error) {
	return chainTry(c, "stat", name, func(f fs.FS) (fs.FileInfo, error) { return fs.Stat(f, name) })
}

// ReadFile implements the fs.ReadFileFS interface.
func (c *chainFS) ReadFile(name string) ([]byte, error) {
	return chainTry(c, "readFile", name, func(f fs.FS) ([]byte, error) { return fs.ReadFile(f, name) })
}

func chainTry[T any](c *chainFS, op, name string, fn func(fs.FS) (T, error)) (res T, err error) {
	if err := validPath(op, name); err != nil {
		return res, errChainFSFn(err)
	}
	if len(c.fs) == 0 {
		return res, errChainFSFn(&fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist})
	}
	for _, i := range c.iter() {
		r, fErr := fn(c.fs[i])
		if fErr == nil {
			return r, nil
		}
		err = multierr.Append(err, fErr)
	}
	return res, errChainFSFn(err)
}

func (c *chainFS) iter() []int {
	if c.rand {
		return rand.Perm(len(c.fs))
	}
	i := make([]int, len(c.fs))
	for n := range c.fs {
		i[n] = n
	}
	return i
}

func errChainFSFn(err error) error {
	return fmt.Errorf("fsutil.chainFS: %w", err)
}
