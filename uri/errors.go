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
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty URIs and for kind restrictions
	// that leave no valid kind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAmbiguousKind is returned when a URI may be both local and online
	// and nothing in the context can tell them apart.
	ErrAmbiguousKind = errors.New("ambiguous uri kind")

	// ErrMissingBaseDirectory is returned when an online relative URI is
	// resolved without a base directory.
	ErrMissingBaseDirectory = errors.New("missing base directory")

	// ErrBaseDirectoryNotAbsolute is returned when the base directory does
	// not resolve to a single absolute kind.
	ErrBaseDirectoryNotAbsolute = errors.New("base directory must be absolute")

	// ErrUnsupportedOperation is returned by families that do not support
	// an operation, such as parent directories on content addressed stores.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

func errEmptyURIFn(op string) error {
	return fmt.Errorf("uri.%s: %w: uri cannot be empty or white spaces", op, ErrInvalidInput)
}

func errNoValidKindFn(op, uri string) error {
	return fmt.Errorf("uri.%s: %w: can't identify a valid uri kind for %q", op, ErrInvalidInput, uri)
}

func errUnexpectedKindFn(op string, kind Kind) error {
	return fmt.Errorf("uri.%s: %w: unexpected uri kind %s", op, ErrInvalidInput, kind)
}

func errAmbiguousKindFn(op, uri string) error {
	return fmt.Errorf("uri.%s: %w: unable to distinguish between local and online uri %q, restrict allowed uri kinds", op, ErrAmbiguousKind, uri)
}

func errMissingBaseDirectoryFn(op, uri string) error {
	return fmt.Errorf("uri.%s: %w: can't resolve online relative uri %q", op, ErrMissingBaseDirectory, uri)
}

func errBaseDirectoryNotAbsoluteFn(op, dir string) error {
	return fmt.Errorf("uri.%s: %w: %q", op, ErrBaseDirectoryNotAbsolute, dir)
}

func errWorkingDirFn(err error) error {
	return fmt.Errorf("uri.Web: unable to get working directory: %w", err)
}

func errParseFn(op string, err error) error {
	return fmt.Errorf("uri.%s: %w: %w", op, ErrInvalidInput, err)
}
