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

// Package ufile reads files referenced by URIs that may point to the local
// filesystem, to HTTP resources or to content addressed stores.
//
// A Handler implements one family of URIs together with the I/O for it. A
// File pairs a URI with its handler: every operation first resolves the URI
// to a single absolute kind and then delegates to the handler. Handlers are
// registered in a Provider under a tag.
package ufile

import (
	"errors"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/chronicleprotocol/unifile/uri"
)

var log = logging.Logger("unifile")

// ErrUnknownHandler is returned by a Provider for tags without a registered
// handler.
var ErrUnknownHandler = errors.New("unknown handler")

func errUnexpectedKindFn(op string, kind uri.Kind) error {
	return fmt.Errorf("ufile.%s: %w: expected an absolute kind, got %s", op, uri.ErrInvalidInput, kind)
}

func errUnsupportedSchemeFn(op string, err error) error {
	return fmt.Errorf("ufile.%s: %w: %w", op, uri.ErrInvalidInput, err)
}

func errUnknownHandlerFn(tag string) error {
	return fmt.Errorf("ufile.Provider: %w: %q", ErrUnknownHandler, tag)
}

func errFamilyMismatchFn(tag string) error {
	return fmt.Errorf("ufile.Provider: %w: uri does not belong to handler %q", uri.ErrInvalidInput, tag)
}

func errOutputPathFn(path string) error {
	return fmt.Errorf("ufile.ToLocalFile: %w: output path must be local and absolute: %s", uri.ErrInvalidInput, path)
}

func errHandlerFn(op string, err error) error {
	return fmt.Errorf("ufile.%s: %w", op, err)
}

func errFileFn(op string, err error) error {
	return fmt.Errorf("ufile.File.%s: %w", op, err)
}
