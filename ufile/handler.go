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
	"io/fs"
	"mime"
	"net/http"
	"strings"

	"github.com/chronicleprotocol/unifile/fsutil"
	"github.com/chronicleprotocol/unifile/uri"
)

// Handler classifies and resolves the URIs of one family and performs the
// I/O for their absolute forms.
//
// The I/O methods accept only absolute URIs, as returned by Absolute, along
// with their kind. Methods that may download the whole file as a side effect
// return the downloaded content, so it can be cached by the caller.
type Handler interface {
	uri.Family

	// Exists reports whether the file exists.
	Exists(ctx context.Context, absolute string, kind uri.Kind) (bool, *Content, error)

	// Size returns the size of the file in bytes.
	Size(ctx context.Context, absolute string, kind uri.Kind) (int64, *Content, error)

	// ReadBytes reads the whole file.
	ReadBytes(ctx context.Context, absolute string, kind uri.Kind) (*Content, error)

	// ReadStream opens the file for reading. It also returns the charset of
	// the file, if known. The caller must close the reader.
	ReadStream(ctx context.Context, absolute string, kind uri.Kind) (io.ReadCloser, string, error)

	// FileName returns the name of the file. It returns false if the URI
	// does not name a file, for example because it ends with a separator.
	FileName(ctx context.Context, absolute string, kind uri.Kind) (string, bool, error)
}

// Content is the content of a file along with its charset. The charset is
// empty if unknown.
type Content struct {
	Data    []byte
	Charset string
}

// Size returns the size of the content in bytes.
func (c *Content) Size() int64 {
	return int64(len(c.Data))
}

// readContent reads the whole file and takes the charset from the HTTP
// headers, if the file system provides them.
func readContent(fsys fs.FS, name string) (*Content, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &Content{Data: data, Charset: fileCharset(f)}, nil
}

func fileCharset(f fs.File) string {
	fi, err := f.Stat()
	if err != nil {
		return ""
	}
	return charset(fsutil.Header(fi))
}

// charset extracts the charset parameter of the Content-Type header.
func charset(h http.Header) string {
	if h == nil {
		return ""
	}
	ct := h.Get("Content-Type")
	if ct == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// lastSegment returns the part of p after the last slash or backslash.
func lastSegment(p string) (string, bool) {
	if p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, `\`) {
		return "", false
	}
	return p[strings.LastIndexAny(p, `/\`)+1:], true
}
