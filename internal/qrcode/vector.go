package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	svg "github.com/ajstarks/svgo"

	"qrlink-go/internal/apperrors"
)

// vectorRenderer SVG 渲染变体。输出为 UTF-8 标记，Logo 以 data URI 内嵌，
// 因此矢量目标不需要 SVG 转换能力。
type vectorRenderer struct{}

func (r *vectorRenderer) Render(m *Matrix, p *Params) (*Result, error) {
	dim := (m.ModuleCount + 2*p.Border) * p.Size

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(dim, dim)
	canvas.Rect(0, 0, dim, dim, "fill:"+p.BackColor)

	// 行主序输出模块矩形，保证标记字节级确定
	offset := p.Border * p.Size
	style := "fill:" + p.FillColor
	for y, row := range m.Modules {
		for x, set := range row {
			if !set {
				continue
			}
			canvas.Rect(offset+x*p.Size, offset+y*p.Size, p.Size, p.Size, style)
		}
	}

	if p.Logo != nil {
		uri, err := r.logoDataURI(p)
		if err != nil {
			return nil, apperrors.RenderError("Logo 处理失败", err)
		}
		target := dim / logoScaleDivisor
		pos := (dim - target) / 2
		canvas.Image(pos, pos, target, target, uri)
	}

	canvas.End()

	return &Result{Data: buf.Bytes(), MIME: MIMESVG}, nil
}

// logoDataURI 生成 Logo 的内嵌 data URI。
// 矢量 Logo 原样内嵌；位图 Logo 先做背景融合再重编码为 PNG。
func (r *vectorRenderer) logoDataURI(p *Params) (string, error) {
	if p.Logo.Format == FormatSVG {
		return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(p.Logo.Data), nil
	}

	// target 仅影响缩放质量，位置与尺寸由 image 元素属性控制
	back := parseHexColor(p.BackColor)
	logo, ok, err := prepareLogo(p.Logo, 512, back, nil)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("logo 资源不可用")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, logo); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
