package qrcode

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/HugoSmits86/nativewebp"

	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/svgconv"
)

// rasterRenderer 位图渲染变体（png/jpeg/webp 共用一套像素绘制）
type rasterRenderer struct {
	format string
	conv   svgconv.Converter
}

func (r *rasterRenderer) Render(m *Matrix, p *Params) (*Result, error) {
	fill := parseHexColor(p.FillColor)
	back := parseHexColor(p.BackColor)

	// 输出边长 = (模块数 + 2*border) * size，精确无余量
	dim := (m.ModuleCount + 2*p.Border) * p.Size
	img := image.NewNRGBA(image.Rect(0, 0, dim, dim))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: back}, image.Point{}, draw.Src)

	// 按行主序绘制模块，保证输出字节级确定
	offset := p.Border * p.Size
	fillSrc := &image.Uniform{C: fill}
	for y, row := range m.Modules {
		for x, set := range row {
			if !set {
				continue
			}
			rect := image.Rect(
				offset+x*p.Size,
				offset+y*p.Size,
				offset+(x+1)*p.Size,
				offset+(y+1)*p.Size,
			)
			draw.Draw(img, rect, fillSrc, image.Point{}, draw.Src)
		}
	}

	skipped := false
	if p.Logo != nil {
		logo, ok, err := prepareLogo(p.Logo, dim/logoScaleDivisor, back, r.conv)
		if err != nil {
			return nil, apperrors.RenderError("Logo 处理失败", err)
		}
		if !ok {
			skipped = true
		} else {
			b := logo.Bounds()
			x := (dim - b.Dx()) / 2
			y := (dim - b.Dy()) / 2
			draw.Draw(img, image.Rect(x, y, x+b.Dx(), y+b.Dy()), logo, b.Min, draw.Over)
		}
	}

	var buf bytes.Buffer
	var mime string
	var err error
	switch r.format {
	case FormatPNG:
		mime = MIMEPNG
		err = png.Encode(&buf, img)
	case FormatJPEG:
		mime = MIMEJPEG
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality})
	case FormatWEBP:
		mime = MIMEWEBP
		err = nativewebp.Encode(&buf, img, nil)
	}
	if err != nil {
		return nil, apperrors.RenderError("图片编码失败: "+r.format, err)
	}

	return &Result{Data: buf.Bytes(), MIME: mime, LogoSkipped: skipped}, nil
}
