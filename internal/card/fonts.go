package card

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// フォントはGoフォントを埋め込みで使用する。テンプレートと同様に
// サーバ側で完結し、外部フォントファイルへの依存を持たない。
var (
	fontOnce    sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontErr     error
)

func loadFonts() error {
	fontOnce.Do(func() {
		regularFont, fontErr = opentype.Parse(goregular.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("failed to parse regular font: %w", fontErr)
			return
		}
		boldFont, fontErr = opentype.Parse(gobold.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("failed to parse bold font: %w", fontErr)
		}
	})
	return fontErr
}

// regularFace は指定ピクセルサイズの標準ウェイトのフェイスを返す。
func regularFace(size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	return opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size: size, DPI: 72, Hinting: font.HintingFull,
	})
}

// boldFace は指定ピクセルサイズの太字フェイスを返す。
func boldFace(size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	return opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size: size, DPI: 72, Hinting: font.HintingFull,
	})
}
