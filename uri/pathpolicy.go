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
	"path"
	"runtime"
	"strings"
)

// PathPolicy describes the local path syntax of a platform.
//
// Implementations do not touch the filesystem, so the policy of any
// platform can be used on any host.
type PathPolicy interface {
	// IsRooted reports whether the path starts at a root, possibly without
	// a volume (e.g. "\dir" on Windows).
	IsRooted(p string) bool

	// IsFullyQualified reports whether the path does not depend on the
	// current directory or the current drive.
	IsFullyQualified(p string) bool

	// Abs resolves p against the anchor directory and returns a cleaned
	// absolute path. The anchor must be fully qualified.
	Abs(p, anchor string) string

	// Dir returns the parent directory of an absolute path. It returns
	// false if the path is a root.
	Dir(p string) (string, bool)
}

var (
	// POSIXPaths is the path policy of Unix-like systems.
	POSIXPaths PathPolicy = posixPaths{}

	// WindowsPaths is the path policy of Windows systems.
	WindowsPaths PathPolicy = windowsPaths{}
)

// DefaultPathPolicy returns the path policy of the current platform.
func DefaultPathPolicy() PathPolicy {
	if runtime.GOOS == "windows" {
		return WindowsPaths
	}
	return POSIXPaths
}

type posixPaths struct{}

func (posixPaths) IsRooted(p string) bool {
	return strings.HasPrefix(p, "/")
}

func (p posixPaths) IsFullyQualified(s string) bool {
	return p.IsRooted(s)
}

func (p posixPaths) Abs(s, anchor string) string {
	if p.IsRooted(s) {
		return path.Clean(s)
	}
	return path.Join(anchor, s)
}

func (posixPaths) Dir(p string) (string, bool) {
	c := path.Clean(p)
	d := path.Dir(c)
	if d == c || d == "." {
		return "", false
	}
	return d, true
}

type windowsPaths struct{}

func (w windowsPaths) IsRooted(p string) bool {
	return len(p) > 0 && isWinSep(p[0]) || hasDrive(p)
}

func (w windowsPaths) IsFullyQualified(p string) bool {
	return isUNC(p) || len(p) >= 3 && hasDrive(p) && isWinSep(p[2])
}

func (w windowsPaths) Abs(p, anchor string) string {
	switch {
	case w.IsFullyQualified(p):
		return winClean(p)
	case len(p) > 0 && isWinSep(p[0]):
		// Rooted but without a drive, take the volume from the anchor.
		return winClean(anchor[:winVolumeLen(anchor)] + p)
	case hasDrive(p):
		// Drive relative, e.g. "C:dir".
		if hasDrive(anchor) && strings.EqualFold(anchor[:2], p[:2]) {
			return winClean(anchor + `\` + p[2:])
		}
		return winClean(p[:2] + `\` + p[2:])
	default:
		return winClean(anchor + `\` + p)
	}
}

func (w windowsPaths) Dir(p string) (string, bool) {
	c := winClean(p)
	vl := winVolumeLen(c)
	rest := c[vl:]
	if rest == "" || rest == `\` {
		return "", false
	}
	i := strings.LastIndexByte(rest, '\\')
	switch {
	case i < 0:
		return c[:vl], vl > 0
	case i == 0:
		return c[:vl+1], true
	default:
		return c[:vl+i], true
	}
}

func isWinSep(c byte) bool {
	return c == '\\' || c == '/'
}

func hasDrive(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0] | 0x20
	return c >= 'a' && c <= 'z'
}

func isUNC(p string) bool {
	return len(p) >= 2 && isWinSep(p[0]) && isWinSep(p[1])
}

// winVolumeLen returns the length of the leading volume name, "C:" or
// "\\server\share".
func winVolumeLen(p string) int {
	if hasDrive(p) {
		return 2
	}
	if !isUNC(p) {
		return 0
	}
	i := 2
	for i < len(p) && !isWinSep(p[i]) {
		i++
	}
	if i == len(p) {
		return i
	}
	j := i + 1
	for j < len(p) && !isWinSep(p[j]) {
		j++
	}
	return j
}

// winClean normalizes separators to backslashes and removes "." and ".."
// elements. Leading ".." elements of rooted paths are dropped.
func winClean(p string) string {
	vl := winVolumeLen(p)
	vol := strings.ReplaceAll(p[:vl], "/", `\`)
	rest := p[vl:]
	rooted := isUNC(p) || len(rest) > 0 && isWinSep(rest[0])
	var elems []string
	for _, e := range strings.FieldsFunc(rest, func(r rune) bool { return r == '\\' || r == '/' }) {
		switch {
		case e == ".":
		case e == ".." && len(elems) > 0 && elems[len(elems)-1] != "..":
			elems = elems[:len(elems)-1]
		case e == ".." && rooted:
		default:
			elems = append(elems, e)
		}
	}
	switch {
	case isUNC(p) && len(elems) == 0:
		return vol
	case rooted:
		return vol + `\` + strings.Join(elems, `\`)
	case vol == "" && len(elems) == 0:
		return "."
	default:
		return vol + strings.Join(elems, `\`)
	}
}
