package card

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// ExportPNG はプレビューキャンバスを印刷解像度に再ラスタライズして
// PNGにエンコードする。リサイズは1回のバイリニアブリットで行う。
func ExportPNG(canvas image.Image) ([]byte, error) {
	out := image.NewRGBA(image.Rect(0, 0, ExportWidth, ExportHeight))
	xdraw.BiLinear.Scale(out, out.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode card PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename はダウンロード用のファイル名を返す。
func ExportFilename(side Side, memberID string) string {
	return fmt.Sprintf("credencial_%s_%s.png", side, memberID)
}
