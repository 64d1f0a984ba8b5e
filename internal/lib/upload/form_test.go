package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Solar roofs"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseFormAndFormFile(t *testing.T) {
	pdf := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 100)...)
	req := multipartRequest(t, "file", "receipt.pdf", pdf)

	require.NoError(t, ParseForm(httptest.NewRecorder(), req, 1<<20))
	assert.Equal(t, "Solar roofs", req.FormValue("title"))

	f, closer, err := FormFile(req, "file")
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, "application/pdf", f.ContentType)
	assert.Equal(t, "pdf", f.Ext)
	assert.Equal(t, int64(len(pdf)), f.Size)
	body, err := io.ReadAll(f.Body)
	require.NoError(t, err)
	assert.Equal(t, pdf, body)
}

func TestFormFile_Missing(t *testing.T) {
	req := multipartRequest(t, "", "", nil)
	require.NoError(t, ParseForm(httptest.NewRecorder(), req, 1<<20))

	_, _, err := FormFile(req, "file")
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestParseForm_TooLarge(t *testing.T) {
	req := multipartRequest(t, "file", "big.pdf", bytes.Repeat([]byte("a"), 4096))

	err := ParseForm(httptest.NewRecorder(), req, 1024)
	assert.ErrorIs(t, err, ErrTooLarge)
}
