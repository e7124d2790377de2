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
	"strings"
)

// Kind is a set of URI kinds.
//
// A classification result may contain several kinds at once, for example
// "/dir/file" is both a local absolute path and an online relative
// reference. A resolved URI always has exactly one primitive kind.
type Kind uint8

const (
	LocalAbsolute Kind = 1 << iota
	LocalRelative
	OnlineAbsolute
	OnlineRelative

	None     Kind = 0
	Absolute      = LocalAbsolute | OnlineAbsolute
	Relative      = LocalRelative | OnlineRelative
	Local         = LocalAbsolute | LocalRelative
	Online        = OnlineAbsolute | OnlineRelative
	All           = Absolute | Relative
)

var primitives = []struct {
	kind Kind
	name string
}{
	{LocalAbsolute, "LocalAbsolute"},
	{LocalRelative, "LocalRelative"},
	{OnlineAbsolute, "OnlineAbsolute"},
	{OnlineRelative, "OnlineRelative"},
}

// Has returns true if k contains any of the kinds in flag.
func (k Kind) Has(flag Kind) bool {
	return k&flag != 0
}

// IsPrimitive returns true if k contains exactly one primitive kind.
func (k Kind) IsPrimitive() bool {
	k &= All
	return k != None && k&(k-1) == 0
}

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	if k&All == None {
		return "None"
	}
	var parts []string
	for _, p := range primitives {
		if k&p.kind != 0 {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseKind parses a kind set. It accepts primitive and union names in
// CamelCase or kebab-case ("local-absolute", "online", "all", ...), joined
// with "|" or ",".
func ParseKind(s string) (Kind, error) {
	var k Kind
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(part), "-", ""))
		switch name {
		case "none":
		case "localabsolute":
			k |= LocalAbsolute
		case "localrelative":
			k |= LocalRelative
		case "onlineabsolute":
			k |= OnlineAbsolute
		case "onlinerelative":
			k |= OnlineRelative
		case "absolute":
			k |= Absolute
		case "relative":
			k |= Relative
		case "local":
			k |= Local
		case "online":
			k |= Online
		case "all":
			k |= All
		default:
			return None, fmt.Errorf("uri.ParseKind: %w: unknown kind %q", ErrInvalidInput, part)
		}
	}
	return k, nil
}
