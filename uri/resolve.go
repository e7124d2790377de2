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

// Family classifies and resolves the URIs of one family of backends, for
// example local files together with HTTP resources, or a content addressed
// store.
//
// An empty base directory means that no base directory is available.
//
// Families are compared with == by URI.Equal, so implementations should be
// pointers or other comparable types. URIs of a non-comparable family are
// never equal.
type Family interface {
	// Classify returns every kind the given string could be. It never
	// fails, and returns None only if no kind applies.
	Classify(uri string) Kind

	// Absolute resolves a URI whose kind is already narrowed down to a
	// single primitive kind. It returns the absolute URI and its kind.
	Absolute(uri, baseDir string, kind Kind) (string, Kind, error)

	// Parent returns the parent directory of an absolute URI. It returns
	// false if the URI is a root.
	Parent(absolute string, kind Kind) (string, Kind, bool, error)
}

// Resolve narrows the kind of a URI down to a single primitive kind and
// resolves it with the given family.
//
// The kind is first restricted to the allowed kinds. If a base directory
// is given and the URI may be relative, the base directory must be
// absolute, and its kind decides between local and online kinds. Any
// remaining ambiguity between local and online kinds is an error, as is an
// online relative URI without a base directory.
func Resolve(f Family, uri string, kind, allowed Kind, baseDir string) (string, Kind, error) {
	actual := kind & allowed

	if baseDir != "" && actual.Has(Relative) {
		switch f.Classify(baseDir) & Absolute {
		case LocalAbsolute:
			actual &= Local
		case OnlineAbsolute:
			actual &= Online
		default:
			return "", None, errBaseDirectoryNotAbsoluteFn("Resolve", baseDir)
		}
	}

	if actual == None {
		return "", None, errNoValidKindFn("Resolve", uri)
	}
	if actual.Has(Local) && actual.Has(Online) {
		return "", None, errAmbiguousKindFn("Resolve", uri)
	}
	if actual.Has(OnlineRelative) && baseDir == "" {
		return "", None, errMissingBaseDirectoryFn("Resolve", uri)
	}

	// The kind is now a single primitive kind. An absolute kind excludes
	// the relative ones of the same group, and a relative kind together
	// with a base directory was already narrowed to the base's group.
	return f.Absolute(uri, baseDir, actual)
}
