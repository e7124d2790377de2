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
	netURL "net/url"
	"os"
	"strings"
)

type WebOption func(*Web)

// WithPathPolicy sets the local path syntax. The default is the policy of
// the current platform.
func WithPathPolicy(p PathPolicy) WebOption {
	return func(w *Web) {
		w.paths = p
	}
}

// WithWorkingDir sets the function used to get the working directory for
// local paths that are not fully qualified. The default is os.Getwd.
func WithWorkingDir(fn func() (string, error)) WebOption {
	return func(w *Web) {
		w.wd = fn
	}
}

// NewWeb creates the family of local paths and HTTP(S) URLs.
//
// Only the "http" and "https" schemes are online absolute URIs. Strings
// without a scheme are online relative URIs and, at the same time, local
// paths. A rooted path such as "/dir/file" is therefore both a local
// absolute path and an online relative URI, and only the allowed kinds or
// the base directory can tell them apart.
func NewWeb(opts ...WebOption) *Web {
	w := &Web{}
	for _, opt := range opts {
		opt(w)
	}
	if w.paths == nil {
		w.paths = DefaultPathPolicy()
	}
	if w.wd == nil {
		w.wd = os.Getwd
	}
	return w
}

type Web struct {
	paths PathPolicy
	wd    func() (string, error)
}

// PathPolicy returns the local path policy of the family.
func (w *Web) PathPolicy() PathPolicy {
	return w.paths
}

// Classify implements the Family interface.
func (w *Web) Classify(uri string) Kind {
	if uri == "" {
		return None
	}
	var k Kind
	if isWebAbsolute(uri) {
		k |= OnlineAbsolute
	}
	if isWebRelative(uri) {
		k |= OnlineRelative
	}
	if !k.Has(OnlineAbsolute) {
		if w.paths.IsRooted(uri) {
			k |= LocalAbsolute
		} else {
			k |= LocalRelative
		}
	}
	return k
}

// Absolute implements the Family interface.
func (w *Web) Absolute(uri, baseDir string, kind Kind) (string, Kind, error) {
	if kind.Has(Relative) && baseDir != "" && !w.Classify(baseDir).Has(Absolute) {
		return "", None, errBaseDirectoryNotAbsoluteFn("Web.Absolute", baseDir)
	}
	switch kind {
	case LocalAbsolute:
		// A rooted path without a drive takes the drive of the base
		// directory, if the base directory has one.
		if !w.paths.IsFullyQualified(uri) && baseDir != "" && w.paths.IsFullyQualified(baseDir) {
			return w.paths.Abs(uri, baseDir), LocalAbsolute, nil
		}
		abs, err := w.fullPath(uri)
		if err != nil {
			return "", None, err
		}
		return abs, LocalAbsolute, nil
	case LocalRelative:
		var (
			anchor string
			err    error
		)
		if baseDir != "" {
			anchor, err = w.fullPath(baseDir)
		} else {
			anchor, err = w.workingDir()
		}
		if err != nil {
			return "", None, err
		}
		return w.paths.Abs(uri, anchor), LocalAbsolute, nil
	case OnlineAbsolute:
		u, err := parseWebURL(uri)
		if err != nil {
			return "", None, errParseFn("Web.Absolute", err)
		}
		return normalizeWebURL(u), OnlineAbsolute, nil
	case OnlineRelative:
		base, err := parseWebURL(baseDir)
		if err != nil {
			return "", None, errBaseDirectoryNotAbsoluteFn("Web.Absolute", baseDir)
		}
		// Every segment is literal data, backslashes separate segments too.
		ref := &netURL.URL{Path: strings.ReplaceAll(uri, `\`, "/")}
		return normalizeWebURL(base.ResolveReference(ref)), OnlineAbsolute, nil
	default:
		return "", None, errUnexpectedKindFn("Web.Absolute", kind)
	}
}

// Parent implements the Family interface.
func (w *Web) Parent(absolute string, kind Kind) (string, Kind, bool, error) {
	switch kind {
	case LocalAbsolute:
		dir, ok := w.paths.Dir(absolute)
		if !ok {
			return "", None, false, nil
		}
		return dir, LocalAbsolute, true, nil
	case OnlineAbsolute:
		u, err := parseWebURL(absolute)
		if err != nil {
			return "", None, false, errParseFn("Web.Parent", err)
		}
		p := strings.TrimSuffix(u.EscapedPath(), "/")
		if p == "" {
			return "", None, false, nil
		}
		p = p[:strings.LastIndexByte(p, '/')+1]
		up, err := netURL.PathUnescape(p)
		if err != nil {
			return "", None, false, errParseFn("Web.Parent", err)
		}
		u.Path = up
		u.RawPath = p
		u.ForceQuery = false
		u.RawQuery = ""
		u.Fragment = ""
		u.RawFragment = ""
		return u.String(), OnlineAbsolute, true, nil
	default:
		return "", None, false, errUnexpectedKindFn("Web.Parent", kind)
	}
}

// fullPath resolves a local path against the working directory, unless it
// is already fully qualified.
func (w *Web) fullPath(p string) (string, error) {
	if w.paths.IsFullyQualified(p) {
		return w.paths.Abs(p, ""), nil
	}
	wd, err := w.workingDir()
	if err != nil {
		return "", err
	}
	return w.paths.Abs(p, wd), nil
}

func (w *Web) workingDir() (string, error) {
	wd, err := w.wd()
	if err != nil {
		return "", errWorkingDirFn(err)
	}
	return wd, nil
}

// isWebAbsolute returns true for absolute http and https URLs.
func isWebAbsolute(s string) bool {
	_, err := parseWebURL(s)
	return err == nil
}

// isWebRelative returns true for strings that may be used as a relative
// reference: anything without a scheme or control characters.
func isWebRelative(s string) bool {
	if hasScheme(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return false
		}
	}
	return true
}

// hasScheme reports whether s starts with a URI scheme. Single letter
// schemes are not accepted because they are Windows drive letters.
func hasScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i >= 2
		default:
			return false
		}
	}
	return false
}

func parseWebURL(s string) (*netURL.URL, error) {
	u, err := netURL.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return nil, errors.New("empty host")
	}
	return u, nil
}

// normalizeWebURL returns the canonical form of an absolute URL: lower case
// host, no dot segments and at least a root path. Empty segments are kept,
// "/a//b" and "/a/b" are different resources.
func normalizeWebURL(u *netURL.URL) string {
	n := u.ResolveReference(&netURL.URL{})
	n.Host = strings.ToLower(n.Host)
	if n.Path == "" {
		n.Path = "/"
		n.RawPath = ""
	}
	return n.String()
}
