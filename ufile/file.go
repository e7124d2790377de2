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

package ufile

import (
	"context"
	"io"
	"slices"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/chronicleprotocol/unifile/uri"
)

type ReadOption func(*readOptions)

type readOptions struct {
	useCache bool
	allowed  uri.Kind
	baseDir  string
}

// UseCacheIfOnline makes the operation use the cached content of an online
// file, if there is one, and cache the content downloaded by it.
func UseCacheIfOnline() ReadOption {
	return func(o *readOptions) {
		o.useCache = true
	}
}

// WithAllowedKinds restricts the kinds the URI may be resolved as. The
// default is uri.All.
func WithAllowedKinds(k uri.Kind) ReadOption {
	return func(o *readOptions) {
		o.allowed = k
	}
}

// WithBaseDirectory sets the base directory used to resolve relative URIs.
// It overrides the default base directory of the URI.
func WithBaseDirectory(dir string) ReadOption {
	return func(o *readOptions) {
		o.baseDir = dir
	}
}

func newReadOptions(opts []ReadOption) readOptions {
	o := readOptions{allowed: uri.All}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// File is a file referenced by a URI and accessed with a Handler.
//
// A File keeps the last content downloaded from an online location when
// asked to with UseCacheIfOnline. The cache is not safe for concurrent use:
// a File must not be used from multiple goroutines without synchronization.
type File struct {
	uri     *uri.URI
	handler Handler
	cache   *Content
}

// NewFile creates a new File. The URI must have been created with the
// handler as its family.
func NewFile(u *uri.URI, h Handler) *File {
	return &File{uri: u, handler: h}
}

// URI returns the URI of the file.
func (f *File) URI() *uri.URI { return f.uri }

// Handler returns the handler of the file.
func (f *File) Handler() Handler { return f.handler }

// ClearOnlineCache drops the cached online content.
func (f *File) ClearOnlineCache() { f.cache = nil }

// Exists reports whether the file exists.
func (f *File) Exists(ctx context.Context, opts ...ReadOption) (bool, error) {
	return cached(f, "Exists", opts,
		func(*Content) bool { return true },
		func(abs string, kind uri.Kind) (bool, *Content, error) {
			return f.handler.Exists(ctx, abs, kind)
		},
	)
}

// Size returns the size of the file in bytes.
func (f *File) Size(ctx context.Context, opts ...ReadOption) (int64, error) {
	return cached(f, "Size", opts,
		func(c *Content) int64 { return c.Size() },
		func(abs string, kind uri.Kind) (int64, *Content, error) {
			return f.handler.Size(ctx, abs, kind)
		},
	)
}

// ReadBytes reads the whole file. It returns the content and its charset,
// which is empty if unknown.
func (f *File) ReadBytes(ctx context.Context, opts ...ReadOption) ([]byte, string, error) {
	c, err := cached(f, "ReadBytes", opts,
		func(c *Content) *Content { return c },
		func(abs string, kind uri.Kind) (*Content, *Content, error) {
			c, err := f.handler.ReadBytes(ctx, abs, kind)
			return c, c, err
		},
	)
	if err != nil {
		return nil, "", err
	}
	return slices.Clone(c.Data), c.Charset, nil
}

// ReadString reads the whole file and decodes it with its charset. Files
// without a known charset are assumed to be UTF-8.
func (f *File) ReadString(ctx context.Context, opts ...ReadOption) (string, error) {
	data, cs, err := f.ReadBytes(ctx, opts...)
	if err != nil {
		return "", err
	}
	return decode(data, cs), nil
}

// ReadStream opens the file for reading. It returns the charset of the file,
// if known. The cache is never used. The caller must close the reader.
func (f *File) ReadStream(ctx context.Context, opts ...ReadOption) (io.ReadCloser, string, error) {
	abs, kind, err := f.resolve("ReadStream", newReadOptions(opts))
	if err != nil {
		return nil, "", err
	}
	r, cs, err := f.handler.ReadStream(ctx, abs, kind)
	if err != nil {
		return nil, "", errFileFn("ReadStream", err)
	}
	operationsTotal.WithLabelValues("ReadStream", sourceBackend).Inc()
	return r, cs, nil
}

// FileName returns the name of the file, or false if the URI does not name
// a file.
func (f *File) FileName(ctx context.Context, opts ...ReadOption) (string, bool, error) {
	abs, kind, err := f.resolve("FileName", newReadOptions(opts))
	if err != nil {
		return "", false, err
	}
	name, ok, err := f.handler.FileName(ctx, abs, kind)
	if err != nil {
		return "", false, errFileFn("FileName", err)
	}
	return name, ok, nil
}

func (f *File) resolve(op string, o readOptions) (string, uri.Kind, error) {
	abs, kind, err := f.uri.Resolve(o.allowed, o.baseDir)
	if err != nil {
		resolveErrorsTotal.WithLabelValues(op).Inc()
		return "", uri.None, errFileFn(op, err)
	}
	return abs, kind, nil
}

// cached runs an operation on a file. If caching is requested, the cached
// online content is used when present, and content downloaded by the
// handler for an online file replaces it.
func cached[T any](
	f *File,
	op string,
	opts []ReadOption,
	fromCache func(*Content) T,
	call func(abs string, kind uri.Kind) (T, *Content, error),
) (res T, err error) {
	o := newReadOptions(opts)
	if o.useCache && f.cache != nil {
		log.Debugw("Using cached online content", "uri", f.uri.Original(), "op", op)
		operationsTotal.WithLabelValues(op, sourceCache).Inc()
		return fromCache(f.cache), nil
	}
	abs, kind, err := f.resolve(op, o)
	if err != nil {
		return res, err
	}
	res, content, err := call(abs, kind)
	if err != nil {
		return res, errFileFn(op, err)
	}
	operationsTotal.WithLabelValues(op, sourceBackend).Inc()
	if o.useCache && kind == uri.OnlineAbsolute && content != nil {
		f.cache = content
	}
	return res, nil
}

// decode converts data in the given charset to a string. Unknown charsets
// are treated as UTF-8.
func decode(data []byte, charset string) string {
	if charset == "" {
		return string(data)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		log.Debugw("Unknown charset, using UTF-8", "charset", charset, "error", err)
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
