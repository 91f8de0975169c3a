package card

import (
	"fmt"
	"image"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// BuildQRPayload は検証ページを指すQRペイロードURLを組み立てる。
// カード描画と管理画面のプレビューの両方で同じ形式を使う。
func BuildQRPayload(baseURL, memberID, token string) string {
	base := strings.TrimSuffix(baseURL, "/")
	return fmt.Sprintf("%s/member/%s?token=%s", base, memberID, url.QueryEscape(token))
}

// renderQR はペイロードからQRコード画像を生成する。
// 訂正レベルは高（H）、余白なし。描画前に同期的に完了する。
func renderQR(payload string, size int) (image.Image, error) {
	qr, err := qrcode.New(payload, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR payload: %w", err)
	}
	qr.DisableBorder = true
	return qr.Image(size), nil
}
