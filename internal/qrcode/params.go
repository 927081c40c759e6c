package qrcode

import (
	"strings"

	"qrlink-go/internal/apperrors"
	"qrlink-go/pkg/utils"
)

// 输出格式（封闭集合，新格式即新增变体）
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWEBP = "webp"
	FormatSVG  = "svg"
)

// 默认颜色
const (
	DefaultFillColor = "#000000"
	DefaultBackColor = "#ffffff"
)

// LogoAsset 已加载的 Logo 资源
type LogoAsset struct {
	Data   []byte
	Format string // png / jpeg / svg
}

// Params 渲染参数
type Params struct {
	Format    string
	Quality   int // 仅有损格式
	Size      int // 每模块像素数
	Border    int // 静区模块数
	FillColor string
	BackColor string
	Logo      *LogoAsset

	// 物理尺寸（可选，换算后覆盖 Size）
	WidthMM  float64
	HeightMM float64
	DPI      int
}

// Normalize 补默认值。须在 Validate 之前调用。
func (p *Params) Normalize() {
	if p.Format == "" {
		p.Format = FormatPNG
	}
	p.Format = strings.ToLower(p.Format)
	if p.Format == "jpg" {
		p.Format = FormatJPEG
	}
	if p.FillColor == "" {
		p.FillColor = DefaultFillColor
	}
	if p.BackColor == "" {
		p.BackColor = DefaultBackColor
	}
	p.FillColor = strings.ToLower(p.FillColor)
	p.BackColor = strings.ToLower(p.BackColor)
	if p.Quality == 0 {
		p.Quality = 90
	}
	if p.Size == 0 {
		p.Size = 10
	}
}

// ApplyPhysical 指定了物理尺寸时由 mm/dpi 推导 size，保持 size 契约统一。
// 模块数在编码后才可知，因此在渲染前调用。推导结果已收敛到合法区间。
func (p *Params) ApplyPhysical(moduleCount int) {
	if p.WidthMM > 0 && p.HeightMM > 0 && p.DPI > 0 {
		p.Size = DeriveSize(moduleCount, p.Border, p.WidthMM, p.HeightMM, p.DPI)
	}
}

// Validate 纯参数校验，出错时指出字段名。不触碰熔断器。
func (p *Params) Validate() *apperrors.AppError {
	switch p.Format {
	case FormatPNG, FormatJPEG, FormatWEBP, FormatSVG:
	default:
		return apperrors.ValidationError("image_format", "不支持的图片格式: "+p.Format)
	}

	if !utils.InRange(p.Size, utils.MinModuleSize, utils.MaxModuleSize) {
		return apperrors.ValidationError("size", "size 必须在 1-50 之间")
	}
	if !utils.InRange(p.Border, utils.MinBorder, utils.MaxBorder) {
		return apperrors.ValidationError("border", "border 必须在 0-20 之间")
	}
	if p.Format == FormatJPEG || p.Format == FormatWEBP {
		if !utils.InRange(p.Quality, utils.MinQuality, utils.MaxQuality) {
			return apperrors.ValidationError("quality", "quality 必须在 1-100 之间")
		}
	}
	if err := utils.ValidateHexColor(p.FillColor); err != nil {
		return apperrors.ValidationError("fill_color", "fill_color 必须为 #rrggbb 格式")
	}
	if err := utils.ValidateHexColor(p.BackColor); err != nil {
		return apperrors.ValidationError("back_color", "back_color 必须为 #rrggbb 格式")
	}
	// 前景背景同色会生成无法识别的二维码，直接拒绝
	if p.FillColor == p.BackColor {
		return apperrors.ValidationError("fill_color", "fill_color 与 back_color 不能相同")
	}
	if p.Logo != nil {
		switch p.Logo.Format {
		case FormatPNG, FormatJPEG, FormatSVG:
		default:
			return apperrors.ValidationError("logo_asset", "不支持的 Logo 格式: "+p.Logo.Format)
		}
	}
	return nil
}
