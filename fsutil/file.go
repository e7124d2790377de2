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
	"errors"
	"fmt"
	"io/fs"
	netURL "net/url"
	"os"
	"path/filepath"
	"strings"
)

type FileOption func(*fileProto)

// WithFileRoot sets the directory that file URIs without a drive letter are
// relative to. The default is "/".
func WithFileRoot(dir string) FileOption {
	return func(f *fileProto) {
		f.root = dir
	}
}

// NewFileProto creates a new file protocol that uses the local filesystem.
// The URI scheme must be "file" and the host must be empty or "localhost".
//
// Paths starting with a drive letter, like "/C:/dir/file", are opened on
// that volume.
func NewFileProto(opts ...FileOption) Protocol {
	f := &fileProto{}
	for _, opt := range opts {
		opt(f)
	}
	if f.root == "" {
		f.root = "/"
	}
	return f
}

type fileProto struct {
	root string
}

// FileSystem implements the Protocol interface.
func (m *fileProto) FileSystem(url *netURL.URL) (fs fs.FS, path string, err error) {
	if url == nil {
		return nil, "", errFileNilURI
	}
	if url.Scheme != "file" {
		return nil, "", errFileUnexpectedSchemeFn(url.Scheme)
	}
	if url.Host != "" && url.Host != "localhost" {
		return nil, "", errFileUnexpectedHostFn(url.Host)
	}
	p := strings.TrimPrefix(url.Path, "/")
	if len(p) >= 2 && p[1] == ':' && isLetter(p[0]) {
		return os.DirFS(p[:2] + "/"), fsPath(p[2:]), nil
	}
	return os.DirFS(m.root), fsPath(p), nil
}

// FileURI converts a local absolute path of the current platform to a file
// URI.
func FileURI(localPath string) *netURL.URL {
	p := filepath.ToSlash(localPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return &netURL.URL{Scheme: "file", Path: p}
}

func isLetter(c byte) bool {
	c |= 0x20
	return c >= 'a' && c <= 'z'
}

var errFileNilURI = errors.New("fsutil.fileProto: nil URI")

func errFileUnexpectedSchemeFn(scheme string) error {
	return fmt.Errorf("fsutil.fileProto: unexpected scheme: %s", scheme)
}

func errFileUnexpectedHostFn(host string) error {
	return fmt.Errorf("fsutil.fileProto: unexpected host: %s, must be empty or 'localhost'", host)
}
