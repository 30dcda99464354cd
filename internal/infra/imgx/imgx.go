package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // 注册 GIF 解码器
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器
	"net/http"

	_ "golang.org/x/image/webp" // 注册 WebP 解码器

	"github.com/John-Robertt/sitebot/internal/domain"
)

// DefaultQuality 是重新编码 JPEG 的默认质量。
const DefaultQuality = 90

// DefaultMaxPixels 是允许解码的最大像素数（宽×高）。
const DefaultMaxPixels int64 = 50_000_000

// Result 是一次图片规范化的结果。
//
// Outcome=success：Data 是重新编码后的 JPEG（不含 EXIF 等元数据）。
// Outcome=degraded：解码/编码失败，Data 是原始字节，Cause 记录原因。
type Result struct {
	Data    []byte
	Outcome domain.Outcome
	Cause   error
}

// MIMEType 返回 Data 的实际类型（用于 data URL）。
func (r Result) MIMEType() string {
	if r.Outcome == domain.OutcomeSuccess {
		return "image/jpeg"
	}
	return http.DetectContentType(r.Data)
}

// NormalizeJPEG 把任意支持的图片（jpeg/png/gif/webp）重新编码为 JPEG。
//
// 约束：
// - 带透明通道或调色板的图片先铺白底转为不透明 RGB
// - 输出不携带任何元数据（标准库编码器不写 EXIF）
// - 失败不返回 error，而是降级为原始字节（Outcome=degraded）
// - 先只读头部尺寸：宽×高超过 maxPixels 时不解码，直接降级
func NormalizeJPEG(raw []byte, quality int, maxPixels int64) Result {
	if len(raw) == 0 {
		return Result{Data: raw, Outcome: domain.OutcomeDegraded, Cause: errors.New("图片为空")}
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Result{Data: raw, Outcome: domain.OutcomeDegraded, Cause: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Result{Data: raw, Outcome: domain.OutcomeDegraded, Cause: errors.New("图片尺寸无效")}
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > maxPixels {
		return Result{Data: raw, Outcome: domain.OutcomeDegraded, Cause: fmt.Errorf("图片尺寸过大：%dx%d 超过 %d 像素上限", cfg.Width, cfg.Height, maxPixels)}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Result{Data: raw, Outcome: domain.OutcomeDegraded, Cause: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Result{Data: raw, Outcome: domain.OutcomeDegraded, Cause: errors.New("图片尺寸无效")}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, toOpaque(img), &jpeg.Options{Quality: quality}); err != nil {
		return Result{Data: raw, Outcome: domain.OutcomeDegraded, Cause: err}
	}
	return Result{Data: out.Bytes(), Outcome: domain.OutcomeSuccess}
}

// toOpaque 对 YCbCr/Gray 直接透传；其它颜色模型铺白底合成到 RGBA。
func toOpaque(img image.Image) image.Image {
	switch img.(type) {
	case *image.YCbCr, *image.Gray:
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
