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
	"maps"
	netURL "net/url"
	"slices"
	"strings"
)

// ProtoFunc creates the protocol that serves a URL.
type ProtoFunc func(*netURL.URL) (Protocol, error)

// ErrUnknownScheme is returned by Mux for URLs with a scheme that has no
// registered protocol.
var ErrUnknownScheme = errors.New("fsutil.Mux: unknown scheme")

// Mux routes URLs to protocols by their scheme. Schemes are matched case
// insensitively. URLs without a scheme are local paths and are routed as
// "file" URLs.
type Mux struct {
	ps map[string]ProtoFunc
}

// NewMux creates a new Mux with a protocol factory per scheme.
func NewMux(ps map[string]ProtoFunc) *Mux {
	m := &Mux{ps: make(map[string]ProtoFunc, len(ps))}
	for scheme, fn := range ps {
		m.ps[strings.ToLower(scheme)] = fn
	}
	return m
}

// Schemes returns the sorted list of routed schemes.
func (m *Mux) Schemes() []string {
	return slices.Sorted(maps.Keys(m.ps))
}

// FileSystem implements the Protocol interface. The given URL is not
// modified.
func (m *Mux) FileSystem(uri *netURL.URL) (fs.FS, string, error) {
	if uri == nil {
		return nil, "", errMuxNilURI
	}
	u := uriCopy(uri)
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		u.Scheme = "file"
	}
	fn, ok := m.ps[u.Scheme]
	if !ok {
		return nil, "", errMuxUnknownSchemeFn(u.Scheme)
	}
	p, err := fn(u)
	if err != nil {
		return nil, "", errMuxProtoFn(u.Scheme, err)
	}
	return p.FileSystem(u)
}

var errMuxNilURI = errors.New("fsutil.Mux: nil URI")

func errMuxUnknownSchemeFn(scheme string) error {
	return fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
}

func errMuxProtoFn(scheme string, err error) error {
	return fmt.Errorf("fsutil.Mux: %s: %w", scheme, err)
}
