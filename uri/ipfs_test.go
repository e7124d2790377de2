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
	testCIDv0 = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	testCIDv1 = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

func TestIPFSClassify(t *testing.T) {
	tc := []struct {
		uri  string
		want Kind
	}{
		{uri: "", want: None},
		{uri: testCIDv0, want: OnlineAbsolute},
		{uri: testCIDv1, want: OnlineAbsolute},
		{uri: testCIDv1 + "/dir/file.txt", want: OnlineAbsolute},
		{uri: "ipfs://" + testCIDv1 + "/file.txt", want: OnlineAbsolute},
		{uri: "/ipfs/" + testCIDv0, want: OnlineAbsolute},
		{uri: testCIDv1 + "?checksum=0x01", want: OnlineAbsolute},
		{uri: "ipfs://" + testCIDv1 + "?checksum=0x01", want: OnlineAbsolute},
		{uri: testCIDv0 + "#top", want: OnlineAbsolute},
		{uri: "file.txt?checksum=0x01", want: OnlineRelative},
		{uri: "file.txt", want: OnlineRelative},
		{uri: "/dir/file.txt", want: OnlineRelative},
		{uri: "QmTest", want: OnlineRelative},
	}
	for _, tt := range tc {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, NewIPFS().Classify(tt.uri))
		})
	}
}

func TestIPFSAbsolute(t *testing.T) {
	tc := []struct {
		name    string
		uri     string
		baseDir string
		kind    Kind
		want    string
		wantErr error
	}{
		{
			name: "cid",
			uri:  testCIDv1,
			kind: OnlineAbsolute,
			want: testCIDv1,
		},
		{
			name: "prefixed cid with path",
			uri:  "ipfs://" + testCIDv0 + "/a/./b/../file.txt",
			kind: OnlineAbsolute,
			want: testCIDv0 + "/a/file.txt",
		},
		{
			name: "path prefix",
			uri:  "/ipfs/" + testCIDv1 + "/dir/",
			kind: OnlineAbsolute,
			want: testCIDv1 + "/dir",
		},
		{
			name: "cid with checksum",
			uri:  testCIDv1 + "?checksum=0x01",
			kind: OnlineAbsolute,
			want: testCIDv1 + "?checksum=0x01",
		},
		{
			name: "prefixed cid with checksum",
			uri:  "ipfs://" + testCIDv1 + "?checksum=0x01#top",
			kind: OnlineAbsolute,
			want: testCIDv1 + "?checksum=0x01",
		},
		{
			name: "path with checksum",
			uri:  testCIDv1 + "/a/../file.txt?checksum=0x01",
			kind: OnlineAbsolute,
			want: testCIDv1 + "/file.txt?checksum=0x01",
		},
		{
			name: "query with slashes",
			uri:  testCIDv1 + "/file.txt?p=a/b",
			kind: OnlineAbsolute,
			want: testCIDv1 + "/file.txt?p=a/b",
		},
		{
			name:    "relative with checksum",
			uri:     "file.txt?checksum=0x01",
			baseDir: testCIDv1 + "/dir?checksum=0x02",
			kind:    OnlineRelative,
			want:    testCIDv1 + "/dir/file.txt?checksum=0x01",
		},
		{
			name:    "absolute ignores base directory",
			uri:     testCIDv1,
			baseDir: testCIDv0,
			kind:    OnlineAbsolute,
			want:    testCIDv1,
		},
		{
			name:    "relative",
			uri:     "file.txt",
			baseDir: testCIDv1 + "/dir",
			kind:    OnlineRelative,
			want:    testCIDv1 + "/dir/file.txt",
		},
		{
			name:    "rooted relative",
			uri:     `/other\file.txt`,
			baseDir: testCIDv1 + "/dir",
			kind:    OnlineRelative,
			want:    testCIDv1 + "/other/file.txt",
		},
		{
			name:    "relative cannot escape root",
			uri:     "../../../file.txt",
			baseDir: testCIDv1 + "/dir",
			kind:    OnlineRelative,
			want:    testCIDv1 + "/file.txt",
		},
		{
			name:    "relative without base directory",
			uri:     "file.txt",
			kind:    OnlineRelative,
			wantErr: ErrMissingBaseDirectory,
		},
		{
			name:    "relative with relative base directory",
			uri:     "file.txt",
			baseDir: "dir",
			kind:    OnlineRelative,
			wantErr: ErrBaseDirectoryNotAbsolute,
		},
		{
			name:    "local kind",
			uri:     "file.txt",
			kind:    LocalRelative,
			wantErr: ErrInvalidInput,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, kind, err := NewIPFS().Absolute(tt.uri, tt.baseDir, tt.kind)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, OnlineAbsolute, kind)
		})
	}
}

func TestIPFSURI(t *testing.T) {
	f := NewIPFS()

	t.Run("resolve relative", func(t *testing.T) {
		u, err := New(f, "file.txt", All, testCIDv1)
		require.NoError(t, err)
		assert.Equal(t, OnlineRelative, u.Kind())
		abs, err := u.ToAbsolute(All, "")
		require.NoError(t, err)
		assert.Equal(t, testCIDv1+"/file.txt", abs.Original())
	})
	t.Run("missing base directory", func(t *testing.T) {
		u, err := New(f, "file.txt", All, "")
		require.NoError(t, err)
		_, err = u.ToAbsolute(All, "")
		require.ErrorIs(t, err, ErrMissingBaseDirectory)
	})
	t.Run("local kinds are not allowed", func(t *testing.T) {
		_, err := New(f, testCIDv1, Local, "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
	t.Run("parent is unsupported", func(t *testing.T) {
		u, err := New(f, testCIDv1+"/dir/file.txt", All, "")
		require.NoError(t, err)
		_, ok, err := u.Parent(All, "")
		require.ErrorIs(t, err, ErrUnsupportedOperation)
		assert.False(t, ok)
	})
}

func TestSplitIPFS(t *testing.T) {
	tc := []struct {
		uri       string
		wantRoot  string
		wantRest  string
		wantQuery string
	}{
		{uri: "ipfs://" + testCIDv1 + "/a/b", wantRoot: testCIDv1, wantRest: "a/b"},
		{uri: "/ipfs/" + testCIDv0, wantRoot: testCIDv0},
		{uri: testCIDv1 + "?checksum=0x01", wantRoot: testCIDv1, wantQuery: "checksum=0x01"},
		{uri: testCIDv1 + "/a?x=1#f", wantRoot: testCIDv1, wantRest: "a", wantQuery: "x=1"},
		{uri: testCIDv1 + "/a#f?x=1", wantRoot: testCIDv1, wantRest: "a"},
	}
	for _, tt := range tc {
		t.Run(tt.uri, func(t *testing.T) {
			root, rest, query := SplitIPFS(tt.uri)
			assert.Equal(t, tt.wantRoot, root)
			assert.Equal(t, tt.wantRest, rest)
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}

func TestIPFSResolveBareCIDWithChecksum(t *testing.T) {
	got, kind, err := Resolve(NewIPFS(), testCIDv1+"?checksum=0x01", OnlineAbsolute, All, "")
	require.NoError(t, err)
	assert.Equal(t, OnlineAbsolute, kind)
	assert.Equal(t, testCIDv1+"?checksum=0x01", got)

	u, err := New(NewIPFS(), "ipfs://"+testCIDv0+"?checksum=0x01", All, "")
	require.NoError(t, err)
	abs, err := u.ToAbsolute(All, "")
	require.NoError(t, err)
	assert.Equal(t, testCIDv0+"?checksum=0x01", abs.Original())
}
