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
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/chronicleprotocol/unifile/fsutil"
	"github.com/chronicleprotocol/unifile/uri"
)

func posixWeb() *uri.Web {
	return uri.NewWeb(
		uri.WithPathPolicy(uri.POSIXPaths),
		uri.WithWorkingDir(func() (string, error) { return "/work", nil }),
	)
}

func testLocalFS() fstest.MapFS {
	return fstest.MapFS{
		"data/a.txt":     &fstest.MapFile{Data: []byte("hello")},
		"work/notes.txt": &fstest.MapFile{Data: []byte("notes")},
	}
}

func keccak(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// testServer serves:
//   - /a.txt with a Latin-1 body and a Content-Length header,
//   - /nohead.txt that rejects HEAD requests,
//   - /forbidden.txt that always responds with 403.
//
// Any other path responds with 404.
func testServer(t *testing.T) *httptest.Server {
	latin1 := []byte("caf\xe9")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.txt":
			w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
			w.Header().Set("Content-Length", strconv.Itoa(len(latin1)))
			if r.Method == http.MethodGet {
				_, _ = w.Write(latin1)
			}
		case "/nohead.txt":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			_, _ = w.Write([]byte("content"))
		case "/forbidden.txt":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testBasicHandler(opts ...BasicOption) *BasicHandler {
	return NewBasicHandler(append([]BasicOption{
		WithWeb(posixWeb()),
		WithLocalProtocol(fsutil.NewFSProto(testLocalFS())),
		WithHTTPRetry(1, 0),
	}, opts...)...)
}

func TestBasicHandlerLocal(t *testing.T) {
	ctx := context.Background()
	h := testBasicHandler()

	ok, c, err := h.Exists(ctx, "/data/a.txt", uri.LocalAbsolute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, c)

	ok, _, err = h.Exists(ctx, "/data", uri.LocalAbsolute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = h.Exists(ctx, "/data/missing.txt", uri.LocalAbsolute)
	require.NoError(t, err)
	assert.False(t, ok)

	size, c, err := h.Size(ctx, "/data/a.txt", uri.LocalAbsolute)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.Nil(t, c)

	_, _, err = h.Size(ctx, "/data/missing.txt", uri.LocalAbsolute)
	require.Error(t, err)

	c, err = h.ReadBytes(ctx, "/data/a.txt", uri.LocalAbsolute)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(c.Data))
	assert.Empty(t, c.Charset)

	r, cs, err := h.ReadStream(ctx, "/data/a.txt", uri.LocalAbsolute)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Empty(t, cs)
}

func TestBasicHandlerOnline(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t)
	h := testBasicHandler()

	t.Run("exists with HEAD", func(t *testing.T) {
		ok, c, err := h.Exists(ctx, srv.URL+"/a.txt", uri.OnlineAbsolute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, c)
	})
	t.Run("exists falls back to GET", func(t *testing.T) {
		ok, c, err := h.Exists(ctx, srv.URL+"/nohead.txt", uri.OnlineAbsolute)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NotNil(t, c)
		assert.Equal(t, "content", string(c.Data))
	})
	t.Run("missing", func(t *testing.T) {
		ok, c, err := h.Exists(ctx, srv.URL+"/missing.txt", uri.OnlineAbsolute)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, c)
	})
	t.Run("forbidden", func(t *testing.T) {
		ok, _, err := h.Exists(ctx, srv.URL+"/forbidden.txt", uri.OnlineAbsolute)
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("size with HEAD", func(t *testing.T) {
		size, c, err := h.Size(ctx, srv.URL+"/a.txt", uri.OnlineAbsolute)
		require.NoError(t, err)
		assert.Equal(t, int64(4), size)
		assert.Nil(t, c)
	})
	t.Run("size by download", func(t *testing.T) {
		size, c, err := h.Size(ctx, srv.URL+"/nohead.txt", uri.OnlineAbsolute)
		require.NoError(t, err)
		assert.Equal(t, int64(7), size)
		require.NotNil(t, c)
	})
	t.Run("size of missing file", func(t *testing.T) {
		_, _, err := h.Size(ctx, srv.URL+"/missing.txt", uri.OnlineAbsolute)
		require.Error(t, err)
	})
	t.Run("read bytes with charset", func(t *testing.T) {
		c, err := h.ReadBytes(ctx, srv.URL+"/a.txt#section", uri.OnlineAbsolute)
		require.NoError(t, err)
		assert.Equal(t, []byte("caf\xe9"), c.Data)
		assert.Equal(t, "iso-8859-1", c.Charset)
	})
	t.Run("read stream", func(t *testing.T) {
		r, cs, err := h.ReadStream(ctx, srv.URL+"/a.txt", uri.OnlineAbsolute)
		require.NoError(t, err)
		defer r.Close()
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, []byte("caf\xe9"), data)
		assert.Equal(t, "iso-8859-1", cs)
	})
	t.Run("read missing file", func(t *testing.T) {
		_, err := h.ReadBytes(ctx, srv.URL+"/missing.txt", uri.OnlineAbsolute)
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestBasicHandlerHeadRejected(t *testing.T) {
	var heads, gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gets.Add(1)
		_, _ = w.Write([]byte("content"))
	}))
	defer srv.Close()

	ctx := context.Background()
	h := testBasicHandler(WithHTTPRetry(3, 200*time.Millisecond))

	start := time.Now()
	ok, c, err := h.Exists(ctx, srv.URL+"/file.txt", uri.OnlineAbsolute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, c)
	assert.Equal(t, int32(1), heads.Load())
	assert.Equal(t, int32(1), gets.Load())

	size, _, err := h.Size(ctx, srv.URL+"/file.txt", uri.OnlineAbsolute)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
	assert.Equal(t, int32(2), heads.Load())
	assert.Equal(t, int32(2), gets.Load())
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestBasicHandlerLocalNotDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	h := NewBasicHandler()
	ok, _, err := h.Exists(context.Background(), filepath.Join(path, "x"), uri.LocalAbsolute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBasicHandlerChecksum(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t)
	h := testBasicHandler(WithChecksumVerification())

	c, err := h.ReadBytes(ctx, srv.URL+"/a.txt?checksum="+keccak([]byte("caf\xe9")), uri.OnlineAbsolute)
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9"), c.Data)

	_, err = h.ReadBytes(ctx, srv.URL+"/a.txt?checksum="+keccak([]byte("other")), uri.OnlineAbsolute)
	require.ErrorIs(t, err, fsutil.ErrChecksumMismatch)
}

func TestBasicHandlerRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h := testBasicHandler(WithHTTPRetry(3, time.Millisecond))
	c, err := h.ReadBytes(context.Background(), srv.URL+"/file", uri.OnlineAbsolute)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(c.Data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestBasicHandlerUnexpectedKind(t *testing.T) {
	ctx := context.Background()
	h := testBasicHandler()
	for _, k := range []uri.Kind{uri.None, uri.LocalRelative, uri.OnlineRelative, uri.All} {
		_, err := h.ReadBytes(ctx, "a.txt", k)
		require.ErrorIs(t, err, uri.ErrInvalidInput, k.String())
		_, _, err = h.FileName(ctx, "a.txt", k)
		require.ErrorIs(t, err, uri.ErrInvalidInput, k.String())
	}
}

func TestBasicHandlerUnsupportedScheme(t *testing.T) {
	_, err := testBasicHandler().ReadBytes(context.Background(), "ftp://example.com/a.txt", uri.OnlineAbsolute)
	require.ErrorIs(t, err, uri.ErrInvalidInput)
	require.ErrorIs(t, err, fsutil.ErrUnknownScheme)
}

func TestBasicHandlerFileName(t *testing.T) {
	tc := []struct {
		absolute string
		kind     uri.Kind
		want     string
		wantOk   bool
	}{
		{absolute: "/dir/file.txt", kind: uri.LocalAbsolute, want: "file.txt", wantOk: true},
		{absolute: `C:\dir\file.txt`, kind: uri.LocalAbsolute, want: "file.txt", wantOk: true},
		{absolute: "/dir/", kind: uri.LocalAbsolute},
		{absolute: `C:\dir\`, kind: uri.LocalAbsolute},
		{absolute: "https://example.com/dir/file.txt", kind: uri.OnlineAbsolute, want: "file.txt", wantOk: true},
		{absolute: "https://example.com/file.txt?v=1#top", kind: uri.OnlineAbsolute, want: "file.txt", wantOk: true},
		{absolute: "https://example.com/dir/", kind: uri.OnlineAbsolute},
	}
	for _, tt := range tc {
		t.Run(tt.absolute, func(t *testing.T) {
			name, ok, err := testBasicHandler().FileName(context.Background(), tt.absolute, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestBasicHandlerContextCanceled(t *testing.T) {
	srv := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := testBasicHandler().Exists(ctx, srv.URL+"/a.txt", uri.OnlineAbsolute)
	require.ErrorIs(t, err, context.Canceled)
}
