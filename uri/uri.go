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
	"reflect"
	"strings"
)

// URI is an immutable reference to a file. It keeps the original string,
// the kinds it was classified as and an optional default base directory.
//
// URI values are safe for concurrent use.
type URI struct {
	family         Family
	original       string
	kind           Kind
	defaultBaseDir string
}

// New classifies the given string with the family and restricts the
// result to the allowed kinds.
//
// The default base directory is used by ToAbsolute and Parent when no
// other base directory is given. It may be empty.
func New(f Family, uri string, allowed Kind, defaultBaseDir string) (*URI, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errEmptyURIFn("New")
	}
	return NewWithKind(f, uri, f.Classify(uri)&allowed, defaultBaseDir)
}

// NewWithKind creates a URI with an already known kind.
func NewWithKind(f Family, uri string, kind Kind, defaultBaseDir string) (*URI, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errEmptyURIFn("NewWithKind")
	}
	if kind&All == None {
		return nil, errNoValidKindFn("NewWithKind", uri)
	}
	return &URI{
		family:         f,
		original:       uri,
		kind:           kind & All,
		defaultBaseDir: defaultBaseDir,
	}, nil
}

// Family returns the family used to classify and resolve the URI.
func (u *URI) Family() Family { return u.family }

// Original returns the URI as it was given.
func (u *URI) Original() string { return u.original }

// Kind returns the possible kinds of the URI.
func (u *URI) Kind() Kind { return u.kind }

// DefaultBaseDirectory returns the default base directory, or an empty
// string if there is none.
func (u *URI) DefaultBaseDirectory() string { return u.defaultBaseDir }

// String implements the fmt.Stringer interface.
func (u *URI) String() string { return u.original }

// Equal returns true if both URIs have the same family, original string,
// kind and default base directory.
func (u *URI) Equal(other *URI) bool {
	if u == nil || other == nil || u == other {
		return u == other
	}
	return sameFamily(u.family, other.family) &&
		u.original == other.original &&
		u.kind == other.kind &&
		u.defaultBaseDir == other.defaultBaseDir
}

// sameFamily compares families without panicking on non-comparable
// dynamic types.
func sameFamily(a, b Family) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return false
	}
	return a == b
}

// Resolve returns the absolute form of the URI and its kind.
//
// The allowed kinds restrict the kinds of the URI. If baseDir is empty,
// the default base directory is used.
func (u *URI) Resolve(allowed Kind, baseDir string) (string, Kind, error) {
	if baseDir == "" {
		baseDir = u.defaultBaseDir
	}
	return Resolve(u.family, u.original, u.kind, allowed, baseDir)
}

// ToAbsolute is like Resolve, but returns the result as a new URI.
func (u *URI) ToAbsolute(allowed Kind, baseDir string) (*URI, error) {
	abs, kind, err := u.Resolve(allowed, baseDir)
	if err != nil {
		return nil, err
	}
	return NewWithKind(u.family, abs, kind, "")
}

// Parent returns the parent directory of the URI as an absolute URI.
// It returns false, without an error, if the URI is already a root.
func (u *URI) Parent(allowed Kind, baseDir string) (*URI, bool, error) {
	abs, kind, err := u.Resolve(allowed, baseDir)
	if err != nil {
		return nil, false, err
	}
	parent, parentKind, ok, err := u.family.Parent(abs, kind)
	if err != nil || !ok {
		return nil, false, err
	}
	p, err := NewWithKind(u.family, parent, parentKind, "")
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
