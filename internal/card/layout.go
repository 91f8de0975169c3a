// Package card は会員証クレデンシャルのラスタ画像を合成する。
//
// 描画はレイヤ順に行う: 背景テンプレート → 写真（coverフィット）→
// テキスト。裏面はQRコードとキャプションを加える。レイアウト座標は
// 印刷テンプレートに合わせた固定値。
package card

import "image"

// キャンバス寸法（プレビュー解像度）
const (
	CanvasWidth  = 1012
	CanvasHeight = 638
)

// 印刷出力寸法: 8.5cm × 5.3cm を300DPIでラスタライズした値。
const (
	ExportWidth  = 1004
	ExportHeight = 626
)

// 表面レイアウト
const (
	photoX = 36
	photoY = 276
	photoW = 156
	photoH = 156

	roleCenterX   = 140
	roleBaselineY = 220
	roleFontSize  = 30

	firstNameX    = 240
	lastNameX     = 620
	nameBaselineY = 300
	nameFontSize  = 22

	addressX        = 240
	addressY        = 405
	addressLineStep = 32
	addressFontSize = 26

	postalCodeX        = addressX + 60
	postalCodeY        = 500
	postalCodeFontSize = 24
)

// 裏面レイアウト
const (
	qrX    = 30
	qrY    = 220
	qrSize = 272

	captionText     = "ESCANEAR PARA VALIDAR"
	captionOffsetY  = 20
	captionFontSize = 14

	expirationX        = 537
	expirationY        = 260
	expirationFontSize = 34

	bloodTypeX = 665
	bloodTypeY = 370

	curpX        = 468
	curpY        = 475
	curpFontSize = 28
)

// 写真プレースホルダ
const (
	placeholderLabel    = "Error Foto"
	placeholderFontSize = 14
)

// photoBox は表面の写真枠を返す。
func photoBox() image.Rectangle {
	return image.Rect(photoX, photoY, photoX+photoW, photoY+photoH)
}

// qrBox は裏面のQR枠を返す。
func qrBox() image.Rectangle {
	return image.Rect(qrX, qrY, qrX+qrSize, qrY+qrSize)
}
