package svgconv

import (
	"bytes"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Converter SVG 栅格化能力。属可选依赖：注入 nil 时渲染层进入降级模式，
// 跳过需要转换的 Logo 而不是让整个请求失败。
type Converter interface {
	Rasterize(data []byte, width, height int) (image.Image, error)
}

type oksvgConverter struct{}

// New 基于 oksvg/rasterx 的纯 Go 实现
func New() Converter {
	return &oksvgConverter{}
}

func (c *oksvgConverter) Rasterize(data []byte, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}
