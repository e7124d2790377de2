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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	localAbsOrOnlineRel = "localAbsOrOnlineRel"
	localAbs            = "localAbs"
	onlineAbs           = "onlineAbs"
	onlineAbs2          = "onlineAbs2"
	relative            = "relative"
)

type absoluteCall struct {
	uri     string
	baseDir string
	kind    Kind
}

// mockFamily classifies a fixed set of names and records calls to Absolute.
type mockFamily struct {
	calls []absoluteCall
}

func (m *mockFamily) Classify(uri string) Kind {
	switch uri {
	case localAbsOrOnlineRel:
		return LocalAbsolute | OnlineRelative
	case localAbs:
		return LocalAbsolute
	case onlineAbs, onlineAbs2:
		return OnlineAbsolute
	case relative:
		return Relative
	default:
		return None
	}
}

func (m *mockFamily) Absolute(uri, baseDir string, kind Kind) (string, Kind, error) {
	m.calls = append(m.calls, absoluteCall{uri: uri, baseDir: baseDir, kind: kind})
	if kind.Has(Local) {
		return "/abs/" + uri, LocalAbsolute, nil
	}
	return "https://abs/" + uri, OnlineAbsolute, nil
}

func (m *mockFamily) Parent(absolute string, kind Kind) (string, Kind, bool, error) {
	return "parent:" + absolute, kind, true, nil
}

func TestResolve(t *testing.T) {
	tc := []struct {
		uri      string
		allowed  Kind
		baseDir  string
		wantKind Kind
		wantErr  error
	}{
		{uri: localAbsOrOnlineRel, allowed: All, wantErr: ErrAmbiguousKind},
		{uri: localAbsOrOnlineRel, allowed: Local, wantKind: LocalAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Online, wantErr: ErrMissingBaseDirectory},
		{uri: localAbsOrOnlineRel, allowed: All, baseDir: localAbsOrOnlineRel, wantKind: LocalAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Local, baseDir: localAbsOrOnlineRel, wantKind: LocalAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Online, baseDir: localAbsOrOnlineRel, wantErr: ErrInvalidInput},
		{uri: localAbsOrOnlineRel, allowed: All, baseDir: localAbs, wantKind: LocalAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Local, baseDir: localAbs, wantKind: LocalAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Online, baseDir: localAbs, wantErr: ErrInvalidInput},
		{uri: localAbsOrOnlineRel, allowed: All, baseDir: onlineAbs, wantKind: OnlineRelative},
		{uri: localAbsOrOnlineRel, allowed: Local, baseDir: onlineAbs, wantKind: LocalAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Online, baseDir: onlineAbs, wantKind: OnlineRelative},
		{uri: localAbsOrOnlineRel, allowed: All, baseDir: relative, wantErr: ErrBaseDirectoryNotAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Local, baseDir: relative, wantKind: LocalAbsolute},
		{uri: localAbsOrOnlineRel, allowed: Online, baseDir: relative, wantErr: ErrBaseDirectoryNotAbsolute},
		{uri: relative, allowed: All, wantErr: ErrAmbiguousKind},
		{uri: relative, allowed: Local, wantKind: LocalRelative},
		{uri: relative, allowed: Online, wantErr: ErrMissingBaseDirectory},
		{uri: relative, allowed: All, baseDir: localAbsOrOnlineRel, wantKind: LocalRelative},
		{uri: relative, allowed: Local, baseDir: localAbsOrOnlineRel, wantKind: LocalRelative},
		{uri: relative, allowed: Online, baseDir: localAbsOrOnlineRel, wantErr: ErrInvalidInput},
		{uri: relative, allowed: All, baseDir: onlineAbs, wantKind: OnlineRelative},
		{uri: relative, allowed: Local, baseDir: onlineAbs, wantErr: ErrInvalidInput},
		{uri: relative, allowed: Online, baseDir: onlineAbs, wantKind: OnlineRelative},
		{uri: relative, allowed: All, baseDir: localAbs, wantKind: LocalRelative},
		{uri: relative, allowed: Local, baseDir: localAbs, wantKind: LocalRelative},
		{uri: relative, allowed: Online, baseDir: localAbs, wantErr: ErrInvalidInput},
		{uri: relative, allowed: All, baseDir: relative, wantErr: ErrBaseDirectoryNotAbsolute},
		{uri: relative, allowed: Local, baseDir: relative, wantErr: ErrBaseDirectoryNotAbsolute},
		{uri: relative, allowed: Online, baseDir: relative, wantErr: ErrBaseDirectoryNotAbsolute},
		{uri: localAbs, allowed: All, baseDir: localAbs, wantKind: LocalAbsolute},
		{uri: localAbs, allowed: Local, baseDir: localAbs, wantKind: LocalAbsolute},
		{uri: localAbs, allowed: Online, baseDir: localAbs, wantErr: ErrInvalidInput},
		{uri: onlineAbs, allowed: All, wantKind: OnlineAbsolute},
		{uri: onlineAbs, allowed: Local, wantErr: ErrInvalidInput},
		{uri: onlineAbs, allowed: Online, wantKind: OnlineAbsolute},
		{uri: onlineAbs, allowed: All, baseDir: localAbsOrOnlineRel, wantKind: OnlineAbsolute},
		{uri: onlineAbs, allowed: Local, baseDir: localAbsOrOnlineRel, wantErr: ErrInvalidInput},
		{uri: onlineAbs, allowed: Online, baseDir: localAbsOrOnlineRel, wantKind: OnlineAbsolute},
		{uri: onlineAbs, allowed: All, baseDir: onlineAbs2, wantKind: OnlineAbsolute},
		{uri: onlineAbs, allowed: All, baseDir: relative, wantKind: OnlineAbsolute},
		{uri: onlineAbs, allowed: Local, baseDir: relative, wantErr: ErrInvalidInput},
		{uri: onlineAbs, allowed: Online, baseDir: relative, wantKind: OnlineAbsolute},
	}
	for _, tt := range tc {
		t.Run(tt.uri+" "+tt.allowed.String()+" "+tt.baseDir, func(t *testing.T) {
			f := &mockFamily{}
			_, _, err := Resolve(f, tt.uri, f.Classify(tt.uri), tt.allowed, tt.baseDir)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.calls)
				return
			}
			require.NoError(t, err)
			require.Len(t, f.calls, 1)
			assert.Equal(t, absoluteCall{uri: tt.uri, baseDir: tt.baseDir, kind: tt.wantKind}, f.calls[0])
		})
	}
}

func TestURIResolveUsesAllowedKinds(t *testing.T) {
	tc := []struct {
		name     string
		kind     Kind
		allowed  Kind
		wantKind Kind
		wantErr  error
	}{
		{name: "all constructor, all method", kind: Relative, allowed: All, wantErr: ErrAmbiguousKind},
		{name: "limit constructor, all method", kind: LocalRelative, allowed: All, wantKind: LocalRelative},
		{name: "all constructor, limit method", kind: Relative, allowed: Local, wantKind: LocalRelative},
		{name: "limit constructor, limit method", kind: LocalRelative, allowed: Online, wantErr: ErrInvalidInput},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFamily{}
			u, err := NewWithKind(f, relative, tt.kind, "")
			require.NoError(t, err)
			_, err = u.ToAbsolute(tt.allowed, "")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, f.calls, 1)
			assert.Equal(t, absoluteCall{uri: relative, kind: tt.wantKind}, f.calls[0])
		})
	}
}

func TestURIResolveUsesBaseDirectory(t *testing.T) {
	tc := []struct {
		name           string
		defaultBaseDir string
		baseDir        string
		wantBaseDir    string
		wantErr        error
	}{
		{name: "no default, no argument", wantErr: ErrAmbiguousKind},
		{name: "default, no argument", defaultBaseDir: onlineAbs, wantBaseDir: onlineAbs},
		{name: "no default, argument", baseDir: onlineAbs, wantBaseDir: onlineAbs},
		{name: "default and argument", defaultBaseDir: onlineAbs, baseDir: onlineAbs2, wantBaseDir: onlineAbs2},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFamily{}
			u, err := New(f, relative, All, tt.defaultBaseDir)
			require.NoError(t, err)
			abs, err := u.ToAbsolute(All, tt.baseDir)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, f.calls, 1)
			assert.Equal(t, absoluteCall{uri: relative, baseDir: tt.wantBaseDir, kind: OnlineRelative}, f.calls[0])
			assert.Equal(t, OnlineAbsolute, abs.Kind())
			assert.Equal(t, "https://abs/"+relative, abs.Original())
			assert.Empty(t, abs.DefaultBaseDirectory())
		})
	}
}

func TestURIConstruct(t *testing.T) {
	f := &mockFamily{}
	for _, k := range []Kind{Absolute, Relative, LocalRelative, OnlineAbsolute} {
		t.Run(k.String(), func(t *testing.T) {
			u, err := NewWithKind(f, "testUri", k, "defaultDir")
			require.NoError(t, err)
			assert.Equal(t, "testUri", u.Original())
			assert.Equal(t, "testUri", u.String())
			assert.Equal(t, k, u.Kind())
			assert.Equal(t, "defaultDir", u.DefaultBaseDirectory())
			assert.Same(t, f, u.Family())
		})
	}

	t.Run("empty", func(t *testing.T) {
		for _, s := range []string{"", "   ", "\t\n"} {
			_, err := New(f, s, All, "")
			require.ErrorIs(t, err, ErrInvalidInput)
			_, err = NewWithKind(f, s, All, "")
			require.ErrorIs(t, err, ErrInvalidInput)
		}
	})
	t.Run("none", func(t *testing.T) {
		_, err := NewWithKind(f, "myUri", None, "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
	t.Run("no allowed kind", func(t *testing.T) {
		_, err := New(f, relative, Absolute, "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
	t.Run("restricted", func(t *testing.T) {
		u, err := New(f, relative, Local, "")
		require.NoError(t, err)
		assert.Equal(t, LocalRelative, u.Kind())
	})
}

func TestURIEqual(t *testing.T) {
	f := &mockFamily{}
	a, err := New(f, relative, All, onlineAbs)
	require.NoError(t, err)
	b, err := New(f, relative, All, onlineAbs)
	require.NoError(t, err)
	c, err := New(f, relative, Local, onlineAbs)
	require.NoError(t, err)
	d, err := New(&mockFamily{}, relative, All, onlineAbs)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(nil))
	assert.True(t, (*URI)(nil).Equal(nil))
}

// sliceFamily is a non-comparable family value.
type sliceFamily struct {
	*mockFamily
	schemes []string
}

func TestURIEqualNonComparableFamily(t *testing.T) {
	f := sliceFamily{mockFamily: &mockFamily{}, schemes: []string{"https"}}
	a, err := NewWithKind(f, relative, Relative, "")
	require.NoError(t, err)
	b, err := NewWithKind(f, relative, Relative, "")
	require.NoError(t, err)

	assert.NotPanics(t, func() { a.Equal(b) })
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))
}

func TestURIParent(t *testing.T) {
	f := &mockFamily{}
	u, err := New(f, relative, Local, "")
	require.NoError(t, err)
	p, ok, err := u.Parent(All, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "parent:/abs/"+relative, p.Original())
	assert.Equal(t, LocalAbsolute, p.Kind())

	// Resolution errors are returned before the family is asked.
	u, err = New(f, relative, All, "")
	require.NoError(t, err)
	_, ok, err = u.Parent(All, "")
	require.ErrorIs(t, err, ErrAmbiguousKind)
	assert.False(t, ok)
}
