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
	"context"
	"errors"
	"fmt"
	"io/fs"
	netURL "net/url"
	"time"

	"github.com/chronicleprotocol/unifile/retry"
)

// NewRetryProto creates a new retry protocol.
//
// The retry protocol will wrap the filesystem returned by a given protocol
// with a retry filesystem.
func NewRetryProto(ctx context.Context, proto Protocol, attempts int, delay time.Duration) Protocol {
	return &retryProto{ctx: ctx, proto: proto, attempts: attempts, delay: delay}
}

type retryProto struct {
	ctx      context.Context
	proto    Protocol
	attempts int
	delay    time.Duration
}

// FileSystem implements the Protocol interface.
func (m *retryProto) FileSystem(uri *netURL.URL) (fs fs.FS, path string, err error) {
	if uri == nil {
		return nil, "", errRetryProtoNilURI
	}
	fs, path, err = m.proto.FileSystem(uri)
	if err != nil {
		return nil, "", errRetryProtoFn(err)
	}
	fs = NewRetryFS(m.ctx, fs, m.attempts, m.delay)
	return
}

type retryFS struct {
	ctx      context.Context
	fs       fs.FS
	attempts int
	delay    time.Duration
}

// NewRetryFS wraps the given FS to add retry functionality.
//
// Errors that indicate a missing file, a permission problem or an invalid
// path are returned immediately.
func NewRetryFS(ctx context.Context, fs fs.FS, attempts int, delay time.Duration) fs.FS {
	return &retryFS{ctx: ctx, fs: fs, attempts: attempts, delay: delay}
}

// Open implements the fs.FS interface.
func (r *retryFS) Open(name string) (fs.File, error) {
	return retryCall(r, func() (fs.File, error) { return r.fs.Open(name) })
}

// Stat implements the fs.StatFS interface.
func (r *retryFS) Stat(name string) (fs.FileInfo, error) {
	return retryCall(r, func() (fs.FileInfo, error) { return fs.Stat(r.fs, name) })
}

// ReadFile implements the fs.ReadFileFS interface.
func (r *retryFS) ReadFile(name string) ([]byte, error) {
	return retryCall(r, func() ([]byte, error) { return fs.ReadFile(r.fs, name) })
}

func retryCall[T any](r *retryFS, fn func() (T, error)) (T, error) {
	return retry.Do(r.ctx, func(_ context.Context) (T, error) {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !isRetryable(err) {
			return v, retry.Stop(errRetryFSFn(err))
		}
		return v, errRetryFSFn(err)
	}, r.attempts, r.delay)
}

func isRetryable(err error) bool {
	var status *StatusError
	if errors.As(err, &status) && !status.Temporary() {
		return false
	}
	return !errors.Is(err, fs.ErrNotExist) &&
		!errors.Is(err, fs.ErrPermission) &&
		!errors.Is(err, ErrChecksumMismatch) &&
		!isPathError(err)
}

var errRetryProtoNilURI = errors.New("fsutil.retryProto: nil URI")

func errRetryProtoFn(err error) error {
	return fmt.Errorf("fsutil.retryProto: %w", err)
}

func errRetryFSFn(err error) error {
	return fmt.Errorf("fsutil.retryFS: %w", err)
}
