package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	// 写真・テンプレートのデコード用
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/hitoshi/credman/internal/model"
	"github.com/hitoshi/credman/internal/security"
	"github.com/hitoshi/credman/internal/storage"
)

// Side はカードの面を表す。
type Side string

const (
	// SideFront は表面（写真と氏名・住所）。
	SideFront Side = "frente"
	// SideBack は裏面（QRコードと有効期限）。
	SideBack Side = "reverso"
)

// ParseSide はパスパラメータからカード面を解釈する。
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(raw)) {
	case SideFront:
		return SideFront, nil
	case SideBack:
		return SideBack, nil
	default:
		return "", model.NewInvalidCardSideError(raw)
	}
}

// 住所カラー (#1e293b)
var addressColor = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}

// Compositor は会員証のレイヤ合成を行う。
type Compositor struct {
	templateDir string
	photos      *storage.PhotoStore
	guard       security.PhotoGuardService
	logger      *slog.Logger
}

// NewCompositor はCompositorを生成する。
func NewCompositor(
	templateDir string,
	photos *storage.PhotoStore,
	guard security.PhotoGuardService,
	logger *slog.Logger,
) *Compositor {
	return &Compositor{
		templateDir: templateDir,
		photos:      photos,
		guard:       guard,
		logger:      logger,
	}
}

// Render は指定面のカード画像をキャンバス解像度で合成する。
func (c *Compositor) Render(member *model.Member, cred *model.Credential, qrPayload string, side Side) (image.Image, error) {
	switch side {
	case SideFront:
		return c.renderFront(member)
	case SideBack:
		return c.renderBack(member, cred, qrPayload)
	default:
		return nil, model.NewInvalidCardSideError(string(side))
	}
}

// renderFront は表面を合成する。
// レイヤ順: 背景テンプレート → 写真 → テキスト。
// 背景の読み込み失敗はこの面にとって致命的で、描画を中断する。
func (c *Compositor) renderFront(member *model.Member) (image.Image, error) {
	canvas, err := c.newCanvas(SideFront)
	if err != nil {
		return nil, err
	}

	c.drawPhoto(canvas, member)

	dc := gg.NewContextForRGBA(canvas)

	// 役職（写真上部、中央揃え）
	if err := c.drawText(dc, textSpec{
		text: strings.ToUpper(member.Role), size: roleFontSize, bold: true,
		x: roleCenterX, y: roleBaselineY, centered: true, color: color.Black,
	}); err != nil {
		return nil, err
	}

	// 氏名
	for _, spec := range []textSpec{
		{text: strings.ToUpper(member.FirstName), size: nameFontSize, x: firstNameX, y: nameBaselineY, color: color.Black},
		{text: strings.ToUpper(member.LastName), size: nameFontSize, x: lastNameX, y: nameBaselineY, color: color.Black},
	} {
		if err := c.drawText(dc, spec); err != nil {
			return nil, err
		}
	}

	// 住所（通りと番地、コロニア）
	line := addressY
	street := strings.TrimSpace(member.Street + " " + member.HouseNumber)
	if street != "" {
		if err := c.drawText(dc, textSpec{
			text: strings.ToUpper(street), size: addressFontSize,
			x: addressX, y: line, color: addressColor,
		}); err != nil {
			return nil, err
		}
		line += addressLineStep
	}
	if member.Colony != "" {
		if err := c.drawText(dc, textSpec{
			text: strings.ToUpper(member.Colony), size: addressFontSize,
			x: addressX, y: line, color: addressColor,
		}); err != nil {
			return nil, err
		}
	}

	// 郵便番号（未設定なら会員IDで代替）
	postal := member.PostalCode
	if postal == "" {
		postal = member.ID
	}
	if err := c.drawText(dc, textSpec{
		text: strings.ToUpper(postal), size: postalCodeFontSize,
		x: postalCodeX, y: postalCodeY, color: addressColor,
	}); err != nil {
		return nil, err
	}

	return canvas, nil
}

// renderBack は裏面を合成する。
// レイヤ順: 背景テンプレート → QRコードとキャプション → テキスト。
func (c *Compositor) renderBack(member *model.Member, cred *model.Credential, qrPayload string) (image.Image, error) {
	canvas, err := c.newCanvas(SideBack)
	if err != nil {
		return nil, err
	}

	// QRコードは合成前に同期的に生成する
	qrImg, err := renderQR(qrPayload, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	xdraw.Draw(canvas, qrBox(), qrImg, qrImg.Bounds().Min, xdraw.Src)

	dc := gg.NewContextForRGBA(canvas)

	if err := c.drawText(dc, textSpec{
		text: captionText, size: captionFontSize, bold: true,
		x: qrX + qrSize/2, y: qrY + qrSize + captionOffsetY,
		centered: true, color: color.Black,
	}); err != nil {
		return nil, err
	}

	// 有効期限
	if cred != nil {
		if err := c.drawText(dc, textSpec{
			text: cred.ExpirationDate.Format("2006-01-02"), size: expirationFontSize,
			bold: true, x: expirationX, y: expirationY, color: color.Black,
		}); err != nil {
			return nil, err
		}
	}

	// 血液型
	if member.BloodType != "" {
		if err := c.drawText(dc, textSpec{
			text: member.BloodType, size: expirationFontSize, bold: true,
			x: bloodTypeX, y: bloodTypeY, color: color.Black,
		}); err != nil {
			return nil, err
		}
	}

	// CURP（未設定なら緊急連絡先、さらに会員IDで代替）
	curp := member.CURP
	if curp == "" {
		curp = member.EmergencyContact
	}
	if curp == "" {
		curp = member.ID
	}
	if err := c.drawText(dc, textSpec{
		text: curp, size: curpFontSize, x: curpX, y: curpY, color: color.Black,
	}); err != nil {
		return nil, err
	}

	return canvas, nil
}

// newCanvas は白背景のキャンバスを用意し、背景テンプレートを敷く。
func (c *Compositor) newCanvas(side Side) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	tpl, err := c.loadTemplate(side)
	if err != nil {
		c.logger.Error("failed to load card template",
			slog.String("side", string(side)), slog.String("error", err.Error()))
		return nil, model.NewTemplateLoadError(string(side))
	}
	xdraw.BiLinear.Scale(canvas, canvas.Bounds(), tpl, tpl.Bounds(), xdraw.Over, nil)
	return canvas, nil
}

// loadTemplate は面に対応する背景テンプレートを読み込む。
func (c *Compositor) loadTemplate(side Side) (image.Image, error) {
	name := "front.png"
	if side == SideBack {
		name = "back.png"
	}
	data, err := os.ReadFile(filepath.Join(c.templateDir, name))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", name, err)
	}
	return img, nil
}

// drawPhoto は会員写真をcoverフィットで写真枠に描画する。
// 読み込みに失敗してもこの面は中断せず、プレースホルダを描画する。
func (c *Compositor) drawPhoto(canvas *image.RGBA, member *model.Member) {
	if member.PhotoURL == "" {
		return
	}

	box := photoBox()
	xdraw.Draw(canvas, box, image.NewUniform(color.White), image.Point{}, xdraw.Src)

	photo, err := c.loadPhoto(member.PhotoURL)
	if err != nil {
		c.logger.Warn("failed to load member photo, drawing placeholder",
			slog.String("member_id", member.ID), slog.String("error", err.Error()))
		c.drawPhotoPlaceholder(canvas, box)
		return
	}

	crop := CoverFitCrop(photo.Bounds(), box.Dx(), box.Dy())
	xdraw.BiLinear.Scale(canvas, box, photo, crop, xdraw.Over, nil)
}

// loadPhoto は参照パスまたは外部URLから写真を読み込む。
// 外部URLはSSRF防止付きクライアント経由で取得する。
func (c *Compositor) loadPhoto(ref string) (image.Image, error) {
	var data []byte
	switch {
	case strings.HasPrefix(ref, "/uploads/"):
		path, err := c.photos.Resolve(ref)
		if err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		var err error
		data, err = c.guard.FetchPhoto(ref)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported photo reference: %s", ref)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	return img, nil
}

// drawPhotoPlaceholder は写真枠にグレーのプレースホルダとラベルを描画する。
func (c *Compositor) drawPhotoPlaceholder(canvas *image.RGBA, box image.Rectangle) {
	gray := color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	xdraw.Draw(canvas, box, image.NewUniform(gray), image.Point{}, xdraw.Src)

	dc := gg.NewContextForRGBA(canvas)
	_ = c.drawText(dc, textSpec{
		text: placeholderLabel, size: placeholderFontSize,
		x: box.Min.X + box.Dx()/2, y: box.Min.Y + 120,
		centered: true, color: color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff},
	})
}

// textSpec は1つのテキスト描画指定。yはベースライン座標。
type textSpec struct {
	text     string
	size     float64
	bold     bool
	x, y     int
	centered bool
	color    color.Color
}

// drawText はテキストを1件描画する。空文字列は何もしない。
func (c *Compositor) drawText(dc *gg.Context, spec textSpec) error {
	if spec.text == "" {
		return nil
	}

	var (
		face font.Face
		err  error
	)
	if spec.bold {
		face, err = boldFace(spec.size)
	} else {
		face, err = regularFace(spec.size)
	}
	if err != nil {
		return err
	}
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetColor(spec.color)
	if spec.centered {
		dc.DrawStringAnchored(spec.text, float64(spec.x), float64(spec.y), 0.5, 0)
	} else {
		dc.DrawString(spec.text, float64(spec.x), float64(spec.y))
	}
	return nil
}
