package utils

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofKey(t *testing.T) {
	a := ProofKey("/proofs/7/", "Screenshot.JPG")
	b := ProofKey("proofs/7", "Screenshot.JPG")
	assert.True(t, strings.HasPrefix(a, "proofs/7/"), a)
	assert.True(t, strings.HasSuffix(a, ".jpg"), a)
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(a, "proofs/7/"), ".jpg"), 36)
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestLocalStorePutProof(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	url, err := store.PutProof(context.Background(), "proofs/3", fileHeader(t, "clip.mp4", []byte("video")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/proofs/3/"), url)
	assert.True(t, strings.HasPrefix(url, store.BaseURL()+"/"), url)

	stored, err := os.ReadFile(filepath.Join(dir, "uploads", filepath.FromSlash(strings.TrimPrefix(url, "/uploads/"))))
	require.NoError(t, err)
	assert.Equal(t, "video", string(stored))
}
