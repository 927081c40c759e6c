package qrcode

import (
	"encoding/base64"
	"image/color"
	"strconv"

	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/svgconv"
)

// MIME 类型
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWEBP = "image/webp"
	MIMESVG  = "image/svg+xml"
)

// Logo 占二维码最小边长的比例（1/3，库推荐的遮挡与可识别性折中）
const logoScaleDivisor = 3

// Result 渲染结果
type Result struct {
	Data []byte
	MIME string
	// LogoSkipped 表示因转换能力缺失跳过了 Logo（降级而非失败）
	LogoSkipped bool
}

// Renderer 单一渲染契约。变体按 Format 选择，属封闭集合而非继承体系。
type Renderer interface {
	Render(m *Matrix, p *Params) (*Result, error)
}

// ForFormat 按格式选择渲染变体
func ForFormat(format string, conv svgconv.Converter) (Renderer, error) {
	switch format {
	case FormatPNG, FormatJPEG, FormatWEBP:
		return &rasterRenderer{format: format, conv: conv}, nil
	case FormatSVG:
		return &vectorRenderer{}, nil
	default:
		return nil, apperrors.ValidationError("image_format", "不支持的图片格式: "+format)
	}
}

// WrapSVGDataURI 将 SVG 标记包装为 data URI，便于内联使用
func WrapSVGDataURI(markup []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(markup)
}

// parseHexColor 解析 #rrggbb，调用前已由 Validate 保证格式合法
func parseHexColor(s string) color.NRGBA {
	r, _ := strconv.ParseUint(s[1:3], 16, 8)
	g, _ := strconv.ParseUint(s[3:5], 16, 8)
	b, _ := strconv.ParseUint(s[5:7], 16, 8)
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}
}
