package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// 5MB
const MaxFileSize = 5 * 1024 * 1024

var (
	// 大きすぎるファイル
	ErrFileTooLarge = errors.New("file too large")

	// 許可していない拡張子
	ErrExtensionNotAllowed = errors.New("extension not allowed")

	// 中身が画像ではない
	ErrInvalidContent = errors.New("invalid file content")
)

//拡張子の許可リスト
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

//実際の中身（sniff結果）の許可リスト
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

//保存名に残す文字以外を落とすため
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// 画像アップロードの受付。検証に通ったファイルだけをdirへ保存する。
type Gate struct {
	dir string
}

func NewGate(dir string) *Gate {
	return &Gate{dir: dir}
}

// Store はサイズ・拡張子・実コンテンツを検証し、衝突しない名前で保存する。
// 返り値は保存したファイル名（ディレクトリは含まない）。
func (g *Gate) Store(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxFileSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", ErrExtensionNotAllowed
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	//先頭512バイトで実際の中身を判定する
	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	if !allowedMimeTypes[http.DetectContentType(head[:n])] {
		return "", ErrInvalidContent
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", err
	}

	//uuid接頭辞で衝突を避ける。元の名前は安全な文字だけ残す。
	filename := uuid.NewString() + "_" + unsafeNameChars.ReplaceAllString(fh.Filename, "")

	dst, err := os.Create(filepath.Join(g.dir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return filename, nil
}

// Remove は保存済み画像を削除する。存在しないファイルはエラーにしない。
func (g *Gate) Remove(filename string) error {
	//ディレクトリ外への参照は受け付けない
	if filename == "" || filename != filepath.Base(filename) {
		return nil
	}

	err := os.Remove(filepath.Join(g.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
