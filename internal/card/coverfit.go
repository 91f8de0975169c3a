package card

import "image"

// CoverFitCrop は元画像からcoverフィットで切り出す矩形を計算する。
// CSSのobject-fit: coverと同じ挙動:
//   - 元画像が枠より横長の場合は高さを使い切り、左右を均等に切り落とす
//   - 縦長または同比率の場合は幅を使い切り、上下を均等に切り落とす
//
// レターボックス化や歪みは発生しない。返す矩形は元画像の座標系。
func CoverFitCrop(src image.Rectangle, boxW, boxH int) image.Rectangle {
	srcW := src.Dx()
	srcH := src.Dy()
	if srcW == 0 || srcH == 0 || boxW == 0 || boxH == 0 {
		return src
	}

	// 比率比較は整数の交差乗算で行い、浮動小数の誤差を避ける
	// srcW/srcH > boxW/boxH ⇔ srcW*boxH > boxW*srcH
	if srcW*boxH > boxW*srcH {
		// 横長: 高さを使い切り、幅を高さ×枠比率に切り詰める
		cropW := srcH * boxW / boxH
		offsetX := (srcW - cropW) / 2
		return image.Rect(
			src.Min.X+offsetX, src.Min.Y,
			src.Min.X+offsetX+cropW, src.Max.Y,
		)
	}

	// 縦長または同比率: 幅を使い切り、高さを切り詰める
	cropH := srcW * boxH / boxW
	offsetY := (srcH - cropH) / 2
	return image.Rect(
		src.Min.X, src.Min.Y+offsetY,
		src.Max.X, src.Min.Y+offsetY+cropH,
	)
}
