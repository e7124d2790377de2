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

package uri

import (
	"fmt"
	"path"
	"strings"

	"github.com/ipfs/go-cid"
)

// NewIPFS creates the family of IPFS content addresses.
//
// A URI whose first segment is a valid CID, optionally prefixed with
// "ipfs://" or "/ipfs/", is online absolute. Any other non-empty string is
// an online relative path that must be resolved against an absolute
// content address. Local kinds are never produced.
func NewIPFS() *IPFS {
	return &IPFS{}
}

type IPFS struct{}

// Classify implements the Family interface.
func (*IPFS) Classify(uri string) Kind {
	if uri == "" {
		return None
	}
	root, _, _ := splitIPFS(uri)
	if _, err := cid.Decode(root); err == nil {
		return OnlineAbsolute
	}
	return OnlineRelative
}

// Absolute implements the Family interface.
//
// The result is always the canonical form "<cid>[/path][?query]". The query
// of the URI is kept, the query of the base directory is not. Fragments are
// dropped.
func (f *IPFS) Absolute(uri, baseDir string, kind Kind) (string, Kind, error) {
	switch kind {
	case OnlineAbsolute:
		root, rest, query := splitIPFS(uri)
		c, err := cid.Decode(root)
		if err != nil {
			return "", None, errParseFn("IPFS.Absolute", err)
		}
		return joinIPFS(c, rest, query), OnlineAbsolute, nil
	case OnlineRelative:
		if baseDir == "" {
			return "", None, errMissingBaseDirectoryFn("IPFS.Absolute", uri)
		}
		root, rest, _ := splitIPFS(baseDir)
		c, err := cid.Decode(root)
		if err != nil {
			return "", None, errBaseDirectoryNotAbsoluteFn("IPFS.Absolute", baseDir)
		}
		rel, query := cutQuery(uri)
		rel = strings.ReplaceAll(rel, `\`, "/")
		if !strings.HasPrefix(rel, "/") {
			rel = path.Join(rest, rel)
		}
		return joinIPFS(c, rel, query), OnlineAbsolute, nil
	default:
		return "", None, errUnexpectedKindFn("IPFS.Absolute", kind)
	}
}

// Parent implements the Family interface. Content addresses have no
// directories, so it always fails with ErrUnsupportedOperation.
func (*IPFS) Parent(absolute string, _ Kind) (string, Kind, bool, error) {
	return "", None, false, fmt.Errorf(
		"uri.IPFS.Parent: %w: content addresses have no parent directories: %q",
		ErrUnsupportedOperation,
		absolute,
	)
}

// SplitIPFS splits an IPFS URI into its root CID, the path inside it and
// the query, without the "?". The CID is not validated.
func SplitIPFS(uri string) (root, rest, query string) {
	return splitIPFS(uri)
}

func splitIPFS(uri string) (string, string, string) {
	s := strings.TrimPrefix(uri, "ipfs://")
	if len(s) == len(uri) {
		s = strings.TrimPrefix(s, "/ipfs/")
	}
	s, query := cutQuery(s)
	root, rest, _ := strings.Cut(s, "/")
	return root, rest, query
}

// cutQuery removes the query and the fragment from s and returns the
// query.
func cutQuery(s string) (string, string) {
	i := strings.IndexAny(s, "?#")
	if i < 0 {
		return s, ""
	}
	if s[i] == '#' {
		return s[:i], ""
	}
	query, _, _ := strings.Cut(s[i+1:], "#")
	return s[:i], query
}

func joinIPFS(c cid.Cid, p, query string) string {
	s := c.String()
	if p = strings.Trim(path.Clean("/"+p), "/"); p != "" {
		s += "/" + p
	}
	if query != "" {
		s += "?" + query
	}
	return s
}
