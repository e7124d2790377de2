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
	"errors"
	"io"
	"io/fs"
	"net/http"
	netURL "net/url"
	"strings"
	"syscall"
	"time"

	"github.com/chronicleprotocol/unifile/fsutil"
	"github.com/chronicleprotocol/unifile/uri"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
)

type BasicOption func(*BasicHandler)

// WithWeb sets the family used to classify and resolve URIs.
func WithWeb(w *uri.Web) BasicOption {
	return func(h *BasicHandler) {
		h.Web = w
	}
}

// WithLocalProtocol sets the protocol used to access local files. The
// protocol receives "file" URIs. The default is fsutil.NewFileProto.
func WithLocalProtocol(p fsutil.Protocol) BasicOption {
	return func(h *BasicHandler) {
		h.local = p
	}
}

// WithHTTPClient sets the HTTP client used for online files.
func WithHTTPClient(c *http.Client) BasicOption {
	return func(h *BasicHandler) {
		h.client = c
	}
}

// WithHTTPRetry sets how many times a failed HTTP request is attempted and
// the delay between attempts. Missing files and permission errors are never
// retried.
func WithHTTPRetry(attempts int, delay time.Duration) BasicOption {
	return func(h *BasicHandler) {
		h.attempts = attempts
		h.delay = delay
	}
}

// WithChecksumVerification enables the verification of online files that
// carry a "checksum" query parameter with their Keccak256 hash. The
// parameter name and the hash can be changed with fsutil.WithChecksumParamName
// and fsutil.WithChecksumHash.
func WithChecksumVerification(opts ...fsutil.ChecksumFSOption) BasicOption {
	return func(h *BasicHandler) {
		h.checksum = true
		h.checksumOpts = opts
	}
}

// BasicHandler handles local paths and HTTP(S) URLs.
//
// Existence and size of online files are checked with a HEAD request. If
// the server does not answer it, the file is downloaded instead and the
// content is returned for caching.
type BasicHandler struct {
	*uri.Web

	local        fsutil.Protocol
	client       *http.Client
	attempts     int
	delay        time.Duration
	checksum     bool
	checksumOpts []fsutil.ChecksumFSOption
}

// NewBasicHandler creates a new BasicHandler.
func NewBasicHandler(opts ...BasicOption) *BasicHandler {
	h := &BasicHandler{attempts: defaultRetryAttempts, delay: defaultRetryDelay}
	for _, opt := range opts {
		opt(h)
	}
	if h.Web == nil {
		h.Web = uri.NewWeb()
	}
	if h.local == nil {
		h.local = fsutil.NewFileProto()
	}
	if h.client == nil {
		h.client = http.DefaultClient
	}
	return h
}

// Exists implements the Handler interface.
func (h *BasicHandler) Exists(ctx context.Context, absolute string, kind uri.Kind) (bool, *Content, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return false, nil, errHandlerFn("BasicHandler.Exists", err)
	}
	if kind == uri.LocalAbsolute {
		_, err := fs.Stat(fsys, name)
		switch {
		case err == nil:
			return true, nil, nil
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR), errors.Is(err, fs.ErrInvalid):
			// A path below a regular file or an invalid name cannot exist.
			return false, nil, nil
		default:
			return false, nil, errHandlerFn("BasicHandler.Exists", err)
		}
	}
	if _, err = fs.Stat(fsys, name); err == nil {
		return true, nil, nil
	}
	log.Debugw("HEAD request failed, trying GET", "uri", absolute, "error", err)
	c, err := readContent(fsys, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, nil, errHandlerFn("BasicHandler.Exists", ctxErr)
		}
		log.Warnw("Unable to fetch online file", "uri", absolute, "error", err)
		return false, nil, nil
	}
	return true, c, nil
}

// Size implements the Handler interface.
func (h *BasicHandler) Size(ctx context.Context, absolute string, kind uri.Kind) (int64, *Content, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return 0, nil, errHandlerFn("BasicHandler.Size", err)
	}
	fi, err := fs.Stat(fsys, name)
	if kind == uri.LocalAbsolute {
		if err != nil {
			return 0, nil, errHandlerFn("BasicHandler.Size", err)
		}
		return fi.Size(), nil, nil
	}
	if err == nil && fi.Size() >= 0 {
		return fi.Size(), nil, nil
	}
	log.Debugw("Size unknown from HEAD request, downloading", "uri", absolute, "error", err)
	c, err := readContent(fsys, name)
	if err != nil {
		return 0, nil, errHandlerFn("BasicHandler.Size", err)
	}
	return c.Size(), c, nil
}

// ReadBytes implements the Handler interface.
func (h *BasicHandler) ReadBytes(ctx context.Context, absolute string, kind uri.Kind) (*Content, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return nil, errHandlerFn("BasicHandler.ReadBytes", err)
	}
	c, err := readContent(fsys, name)
	if err != nil {
		return nil, errHandlerFn("BasicHandler.ReadBytes", err)
	}
	return c, nil
}

// ReadStream implements the Handler interface.
func (h *BasicHandler) ReadStream(ctx context.Context, absolute string, kind uri.Kind) (io.ReadCloser, string, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return nil, "", errHandlerFn("BasicHandler.ReadStream", err)
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, "", errHandlerFn("BasicHandler.ReadStream", err)
	}
	return f, fileCharset(f), nil
}

// FileName implements the Handler interface.
//
// The name is the last segment of the URI, split on both slashes and
// backslashes. The query and fragment of online URIs are ignored.
func (h *BasicHandler) FileName(_ context.Context, absolute string, kind uri.Kind) (string, bool, error) {
	switch kind {
	case uri.LocalAbsolute:
	case uri.OnlineAbsolute:
		if i := strings.IndexAny(absolute, "?#"); i >= 0 {
			absolute = absolute[:i]
		}
	default:
		return "", false, errUnexpectedKindFn("BasicHandler.FileName", kind)
	}
	name, ok := lastSegment(absolute)
	return name, ok, nil
}

// fileSystem returns the file system and the path of an absolute URI.
func (h *BasicHandler) fileSystem(ctx context.Context, absolute string, kind uri.Kind) (fs.FS, string, error) {
	var u *netURL.URL
	switch kind {
	case uri.LocalAbsolute:
		u = fsutil.FileURI(absolute)
	case uri.OnlineAbsolute:
		var err error
		if u, err = netURL.Parse(absolute); err != nil {
			return nil, "", err
		}
		u.Fragment = ""
		u.RawFragment = ""
	default:
		return nil, "", errUnexpectedKindFn("BasicHandler", kind)
	}
	fsys, name, err := h.protocol(ctx).FileSystem(u)
	if errors.Is(err, fsutil.ErrUnknownScheme) {
		return nil, "", errUnsupportedSchemeFn("BasicHandler", err)
	}
	return fsys, name, err
}

// protocol routes URIs by scheme. Online protocols are bound to the
// context of a single call.
func (h *BasicHandler) protocol(ctx context.Context) fsutil.Protocol {
	online := func(*netURL.URL) (fsutil.Protocol, error) {
		p := fsutil.NewHTTPProto(ctx, fsutil.WithHTTPClient(h.client))
		if h.checksum {
			p = fsutil.NewChecksumProto(p, h.checksumOpts...)
		}
		if h.attempts > 1 {
			p = fsutil.NewRetryProto(ctx, p, h.attempts, h.delay)
		}
		return p, nil
	}
	return fsutil.NewMux(map[string]fsutil.ProtoFunc{
		"file":  func(*netURL.URL) (fsutil.Protocol, error) { return h.local, nil },
		"http":  online,
		"https": online,
	})
}
