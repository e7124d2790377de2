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

	"github.com/chronicleprotocol/unifile/fsutil"
	"github.com/chronicleprotocol/unifile/uri"
)

type IPFSOption func(*IPFSHandler)

// WithIPFSOptions sets the options of the underlying IPFS file system, such
// as gateways and the HTTP client.
func WithIPFSOptions(opts ...fsutil.IPFSOption) IPFSOption {
	return func(h *IPFSHandler) {
		h.opts = append(h.opts, opts...)
	}
}

// IPFSHandler handles IPFS content addresses in the form
// "<cid>[/path][?checksum=<hash>]".
//
// Content is fetched from public gateways, trying them in random order.
// Adding a "checksum" query parameter with the Keccak256 hash of the
// content makes the handler reject data that does not match it. IPFS has
// no concept of directories, so Parent always fails.
type IPFSHandler struct {
	*uri.IPFS

	opts []fsutil.IPFSOption
}

// NewIPFSHandler creates a new IPFSHandler.
func NewIPFSHandler(opts ...IPFSOption) *IPFSHandler {
	h := &IPFSHandler{IPFS: uri.NewIPFS()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Exists implements the Handler interface. Any gateway failure is reported
// as a missing file.
func (h *IPFSHandler) Exists(ctx context.Context, absolute string, kind uri.Kind) (bool, *Content, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return false, nil, errHandlerFn("IPFSHandler.Exists", err)
	}
	if _, err := fs.Stat(fsys, name); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, nil, errHandlerFn("IPFSHandler.Exists", ctxErr)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnw("Unable to stat IPFS content", "uri", absolute, "error", err)
		}
		return false, nil, nil
	}
	return true, nil, nil
}

// Size implements the Handler interface.
func (h *IPFSHandler) Size(ctx context.Context, absolute string, kind uri.Kind) (int64, *Content, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return 0, nil, errHandlerFn("IPFSHandler.Size", err)
	}
	fi, err := fs.Stat(fsys, name)
	if err == nil && fi.Size() >= 0 {
		return fi.Size(), nil, nil
	}
	c, err := readContent(fsys, name)
	if err != nil {
		return 0, nil, errHandlerFn("IPFSHandler.Size", err)
	}
	return c.Size(), c, nil
}

// ReadBytes implements the Handler interface.
func (h *IPFSHandler) ReadBytes(ctx context.Context, absolute string, kind uri.Kind) (*Content, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return nil, errHandlerFn("IPFSHandler.ReadBytes", err)
	}
	c, err := readContent(fsys, name)
	if err != nil {
		return nil, errHandlerFn("IPFSHandler.ReadBytes", err)
	}
	return c, nil
}

// ReadStream implements the Handler interface.
func (h *IPFSHandler) ReadStream(ctx context.Context, absolute string, kind uri.Kind) (io.ReadCloser, string, error) {
	fsys, name, err := h.fileSystem(ctx, absolute, kind)
	if err != nil {
		return nil, "", errHandlerFn("IPFSHandler.ReadStream", err)
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, "", errHandlerFn("IPFSHandler.ReadStream", err)
	}
	return f, fileCharset(f), nil
}

// FileName implements the Handler interface. A bare CID has no file name.
func (h *IPFSHandler) FileName(_ context.Context, absolute string, kind uri.Kind) (string, bool, error) {
	if kind != uri.OnlineAbsolute {
		return "", false, errUnexpectedKindFn("IPFSHandler.FileName", kind)
	}
	_, rest, _ := uri.SplitIPFS(absolute)
	name, ok := lastSegment(rest)
	return name, ok, nil
}

func (h *IPFSHandler) fileSystem(ctx context.Context, absolute string, kind uri.Kind) (fs.FS, string, error) {
	if kind != uri.OnlineAbsolute {
		return nil, "", errUnexpectedKindFn("IPFSHandler", kind)
	}
	root, rest, query := uri.SplitIPFS(absolute)
	address := "ipfs://" + root + "/" + rest
	if query != "" {
		address += "?" + query
	}
	return fsutil.ParseURI(fsutil.NewIPFSProto(ctx, h.opts...), address)
}
