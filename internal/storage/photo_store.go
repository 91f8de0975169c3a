// Package storage は会員写真のファイル保存を提供する。
//
// 管理画面から送られるdata URL形式の写真をデコードしてディスクに保存し、
// `/uploads/...` の参照パスへ変換する。参照パスは会員レコードに保存され、
// chiの静的配信とカード描画の両方から解決される。
package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// dataURLPattern はdata URL形式の写真を解析する。
// 例: data:image/png;base64,iVBORw0...
var dataURLPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,(.+)$`)

// PhotoStore は写真ファイルの保存と解決を行う。
type PhotoStore struct {
	uploadDir string
	now       func() time.Time
}

// NewPhotoStore はPhotoStoreを生成し、保存先ディレクトリを用意する。
func NewPhotoStore(uploadDir string) (*PhotoStore, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &PhotoStore{uploadDir: uploadDir, now: time.Now}, nil
}

// IsDataURL は値がdata URL形式の写真かを返す。
func IsDataURL(value string) bool {
	return strings.HasPrefix(value, "data:image/")
}

// SaveDataURL はdata URL形式の写真をデコードして保存し、参照パスを返す。
// ファイル名は {memberID}-{unixnano}.{ext} で衝突しない。
func (s *PhotoStore) SaveDataURL(memberID, dataURL string) (string, error) {
	matches := dataURLPattern.FindStringSubmatch(dataURL)
	if matches == nil {
		return "", fmt.Errorf("not a valid image data URL")
	}
	ext := extensionForMIME(matches[1])
	payload, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		return "", fmt.Errorf("failed to decode photo payload: %w", err)
	}

	name := fmt.Sprintf("%s-%d.%s", memberID, s.now().UnixNano(), ext)
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}
	return "/uploads/" + name, nil
}

// Resolve は参照パス（/uploads/...）をディスク上の実パスに解決する。
// ディレクトリトラバーサルを防ぐため、保存先ディレクトリの外を指す
// パスはエラーにする。
func (s *PhotoStore) Resolve(ref string) (string, error) {
	name := strings.TrimPrefix(ref, "/uploads/")
	if name == ref {
		return "", fmt.Errorf("not an upload reference: %s", ref)
	}
	cleaned := filepath.Clean(name)
	if cleaned != name || strings.Contains(cleaned, "..") || strings.ContainsRune(cleaned, filepath.Separator) {
		return "", fmt.Errorf("invalid upload reference: %s", ref)
	}
	return filepath.Join(s.uploadDir, cleaned), nil
}

// Dir は保存先ディレクトリを返す。静的配信と清掃ジョブが使用する。
func (s *PhotoStore) Dir() string {
	return s.uploadDir
}

// extensionForMIME はMIMEサブタイプからファイル拡張子を決定する。
func extensionForMIME(subtype string) string {
	switch strings.ToLower(subtype) {
	case "jpeg", "jpg":
		return "jpg"
	case "svg+xml":
		return "svg"
	default:
		return strings.ToLower(subtype)
	}
}
