package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"

	"github.com/magabrotheeeer/conference-registration/internal/config"
)

func newStore(t *testing.T) (*Store, *blob.Bucket) {
	t.Helper()
	b := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = b.Close() })
	return NewStore(b, "http://localhost:8080/files/", "receipts", "abstracts"), b
}

func readObject(t *testing.T, b *blob.Bucket, key string) string {
	t.Helper()
	data, err := b.ReadAll(context.Background(), key)
	require.NoError(t, err)
	return string(data)
}

func TestOpen_LocalDirectory(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	s, err := Open(ctx, config.ObjectStore{RootDir: root, PublicBaseURL: "http://localhost:8080/files"}, "receipts")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Put(ctx, "receipts", "u1/1700000000000.pdf", strings.NewReader("%PDF")))

	data, err := os.ReadFile(filepath.Join(root, "receipts", "u1", "1700000000000.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	err = s.Put(ctx, "receipts", "u1/1700000000000.pdf", strings.NewReader("again"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestOpen_UnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), config.ObjectStore{BucketURL: "nosuch://bucket"}, "receipts")
	assert.Error(t, err)
}

func TestPut_WritesObject(t *testing.T) {
	s, b := newStore(t)

	require.NoError(t, s.Put(context.Background(), "receipts", "u1/1700000000000.pdf", strings.NewReader("%PDF")))

	assert.Equal(t, "%PDF", readObject(t, b, "receipts/u1/1700000000000.pdf"))
}

func TestPut_NoOverwrite(t *testing.T) {
	s, b := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "receipts", "u1/1.pdf", strings.NewReader("first")))
	err := s.Put(ctx, "receipts", "u1/1.pdf", strings.NewReader("second"))
	require.ErrorIs(t, err, ErrAlreadyExists)

	assert.Equal(t, "first", readObject(t, b, "receipts/u1/1.pdf"))
}

func TestPut_InvalidInput(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		bucket  string
		key     string
		wantErr error
	}{
		{name: "unknown bucket", bucket: "avatars", key: "u1/1.png", wantErr: ErrUnknownBucket},
		{name: "path traversal", bucket: "receipts", key: "../abstracts/x.pdf", wantErr: ErrInvalidKey},
		{name: "absolute", bucket: "receipts", key: "/etc/passwd", wantErr: ErrInvalidKey},
		{name: "empty", bucket: "receipts", key: "", wantErr: ErrInvalidKey},
		{name: "directory", bucket: "receipts", key: "u1/", wantErr: ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Put(ctx, tt.bucket, tt.key, strings.NewReader("x"))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestPut_CopyFailureLeavesNothing(t *testing.T) {
	s, b := newStore(t)
	ctx := context.Background()

	err := s.Put(ctx, "abstracts", "u1/2.docx", io.MultiReader(strings.NewReader("PK"), brokenReader{}))
	require.Error(t, err)

	exists, err := b.Exists(ctx, "abstracts/u1/2.docx")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPut_CancelledContext(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, "receipts", "u1/3.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublicURL(t *testing.T) {
	s, _ := newStore(t)
	assert.Equal(t,
		"http://localhost:8080/files/receipts/u1/1700000000000.pdf",
		s.PublicURL("receipts", "u1/1700000000000.pdf"))
	assert.Equal(t,
		"http://localhost:8080/files/abstracts/u%201/a.pdf",
		s.PublicURL("abstracts", "u 1/a.pdf"))
}

func TestHandler(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Put(context.Background(), "receipts", "u1/5.pdf", strings.NewReader("%PDF-1.7")))
	h := http.StripPrefix("/files", s.Handler())

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{name: "existing object", method: http.MethodGet, path: "/files/receipts/u1/5.pdf", wantCode: http.StatusOK, wantBody: "%PDF-1.7"},
		{name: "missing object", method: http.MethodGet, path: "/files/receipts/u1/6.pdf", wantCode: http.StatusNotFound},
		{name: "prefix is not an object", method: http.MethodGet, path: "/files/receipts/u1", wantCode: http.StatusNotFound},
		{name: "unknown bucket", method: http.MethodGet, path: "/files/secrets/u1/5.pdf", wantCode: http.StatusNotFound},
		{name: "bucket root", method: http.MethodGet, path: "/files/receipts", wantCode: http.StatusNotFound},
		{name: "post not allowed", method: http.MethodPost, path: "/files/receipts/u1/5.pdf", wantCode: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}
