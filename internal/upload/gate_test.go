package upload

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//最小のPNGシグネチャ（sniffでimage/pngになる）
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

// multipartリクエストを組んで*multipart.FileHeaderを作る
func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	fhs := req.MultipartForm.File["image"]
	require.Len(t, fhs, 1)
	return fhs[0]
}

func TestGate_Store_ValidPNG(t *testing.T) {
	dir := t.TempDir()
	g := NewGate(dir)

	filename, err := g.Store(makeFileHeader(t, "photo.png", pngHeader))
	require.NoError(t, err)

	//uuid接頭辞つきで元の名前が残る
	assert.True(t, strings.HasSuffix(filename, "_photo.png"), filename)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestGate_Store_SanitizesOriginalName(t *testing.T) {
	dir := t.TempDir()
	g := NewGate(dir)

	filename, err := g.Store(makeFileHeader(t, "my photo (1).png", pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(filename, "_myphoto1.png"), filename)
}

func TestGate_Store_RejectsDisallowedExtension(t *testing.T) {
	g := NewGate(t.TempDir())

	_, err := g.Store(makeFileHeader(t, "script.php", []byte("<?php")))
	assert.ErrorIs(t, err, ErrExtensionNotAllowed)
}

func TestGate_Store_RejectsNonImageContent(t *testing.T) {
	g := NewGate(t.TempDir())

	//拡張子は通るが中身がテキスト
	_, err := g.Store(makeFileHeader(t, "fake.png", []byte("just some text")))
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestGate_Store_RejectsTooLarge(t *testing.T) {
	g := NewGate(t.TempDir())

	big := make([]byte, MaxFileSize+1)
	copy(big, pngHeader)

	_, err := g.Store(makeFileHeader(t, "big.png", big))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestGate_Remove_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	g := NewGate(dir)

	path := filepath.Join(dir, "x.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o644))

	require.NoError(t, g.Remove("x.png"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestGate_Remove_MissingFileIsNotAnError(t *testing.T) {
	g := NewGate(t.TempDir())
	assert.NoError(t, g.Remove("nope.png"))
}

func TestGate_Remove_RefusesPathTraversal(t *testing.T) {
	dir := t.TempDir()
	g := NewGate(filepath.Join(dir, "uploads"))

	outside := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	require.NoError(t, g.Remove("../secret.txt"))

	//外のファイルは消えていない
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
