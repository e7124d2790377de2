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
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/chronicleprotocol/unifile/uri"
)

const (
	// BasicTag is the tag of the handler for local files and HTTP URLs.
	BasicTag = "basic"

	// IPFSTag is the tag of the handler for IPFS content addresses.
	IPFSTag = "ipfs"
)

type ProviderOption func(*Provider)

// WithHandler registers a handler under the given tag.
func WithHandler(tag string, h Handler) ProviderOption {
	return func(p *Provider) {
		p.handlers[tag] = h
	}
}

// Provider keeps the handlers available to an application, each under its
// own tag, and creates URIs and files for them.
type Provider struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewProvider creates a new provider. Unless overridden by the options, a
// BasicHandler is registered under BasicTag.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{handlers: map[string]Handler{BasicTag: NewBasicHandler()}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register registers a handler under the given tag, replacing any handler
// already registered under it.
func (p *Provider) Register(tag string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[tag] = h
}

// Handler returns the handler registered under the given tag.
func (p *Provider) Handler(tag string) (Handler, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handlers[tag]
	if !ok {
		return nil, errUnknownHandlerFn(tag)
	}
	return h, nil
}

// Tags returns the sorted tags of all registered handlers.
func (p *Provider) Tags() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tags := make([]string, 0, len(p.handlers))
	for t := range p.handlers {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// NewURI creates a URI classified by the handler registered under the
// given tag.
func (p *Provider) NewURI(tag, s string, allowed uri.Kind, defaultBaseDir string) (*uri.URI, error) {
	h, err := p.Handler(tag)
	if err != nil {
		return nil, err
	}
	return uri.New(h, s, allowed, defaultBaseDir)
}

// Open creates a URI with NewURI and returns its file.
func (p *Provider) Open(tag, s string, allowed uri.Kind, defaultBaseDir string) (*File, error) {
	h, err := p.Handler(tag)
	if err != nil {
		return nil, err
	}
	u, err := uri.New(h, s, allowed, defaultBaseDir)
	if err != nil {
		return nil, err
	}
	return NewFile(u, h), nil
}

// File returns the file of a URI created with the handler registered under
// the given tag.
func (p *Provider) File(tag string, u *uri.URI) (*File, error) {
	h, err := p.Handler(tag)
	if err != nil {
		return nil, err
	}
	if u.Family() != uri.Family(h) {
		return nil, errFamilyMismatchFn(tag)
	}
	return NewFile(u, h), nil
}

type LocalFileOption func(*localFileOptions)

type localFileOptions struct {
	output string
	read   []ReadOption
}

// WithOutputPath sets the local absolute path the file is written to.
func WithOutputPath(path string) LocalFileOption {
	return func(o *localFileOptions) {
		o.output = path
	}
}

// WithLocalReadOptions sets the options used to read the source file.
func WithLocalReadOptions(opts ...ReadOption) LocalFileOption {
	return func(o *localFileOptions) {
		o.read = append(o.read, opts...)
	}
}

// ToLocalFile returns a local copy of the file.
//
// If the file already is a local file of the basic handler, it is returned
// as is. Otherwise its content is written to the output path, or, if none
// is given, to the temporary directory using the name of the source file.
// Files without a name are written to a new temporary file.
func (p *Provider) ToLocalFile(ctx context.Context, f *File, opts ...LocalFileOption) (*File, error) {
	o := localFileOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	basic, err := p.Handler(BasicTag)
	if err != nil {
		return nil, err
	}
	ro := newReadOptions(o.read)
	if f.handler == basic && f.uri.Kind()&ro.allowed&uri.Local != uri.None {
		return f, nil
	}
	output := o.output
	switch {
	case output != "":
		if !basic.Classify(output).Has(uri.LocalAbsolute) {
			return nil, errOutputPathFn(output)
		}
	default:
		name, ok, err := f.FileName(ctx, o.read...)
		if err != nil {
			return nil, errHandlerFn("ToLocalFile", err)
		}
		if ok {
			output = filepath.Join(os.TempDir(), name)
		} else {
			tmp, err := os.CreateTemp("", "unifile-*")
			if err != nil {
				return nil, errHandlerFn("ToLocalFile", err)
			}
			output = tmp.Name()
			_ = tmp.Close()
		}
	}
	if err := copyToLocal(ctx, f, output, o.read); err != nil {
		return nil, errHandlerFn("ToLocalFile", err)
	}
	log.Debugw("Copied file to local path", "uri", f.uri.Original(), "path", output)
	return p.Open(BasicTag, output, uri.LocalAbsolute, "")
}

func copyToLocal(ctx context.Context, f *File, output string, opts []ReadOption) error {
	r, _, err := f.ReadStream(ctx, opts...)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(output)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
