package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"qrlink-go/internal/svgconv"
)

// prepareLogo 将 Logo 资源处理为可叠加的位图：
// 缩放到目标边长以内，并把自身背景（透明区、纯白底）换成二维码背景色，
// 避免 Logo 呈现为一块突兀的异色矩形。
// SVG 资源且无转换能力时返回 ok=false，调用方降级跳过。
func prepareLogo(logo *LogoAsset, target int, back color.NRGBA, conv svgconv.Converter) (image.Image, bool, error) {
	if target < 1 {
		return nil, false, nil
	}

	var src image.Image
	switch logo.Format {
	case FormatSVG:
		if conv == nil {
			// 降级模式：跳过 Logo，请求仍然成功
			return nil, false, nil
		}
		img, err := conv.Rasterize(logo.Data, target, target)
		if err != nil {
			return nil, false, fmt.Errorf("svg 栅格化失败: %w", err)
		}
		src = img
	case FormatPNG, FormatJPEG:
		img, _, err := image.Decode(bytes.NewReader(logo.Data))
		if err != nil {
			return nil, false, fmt.Errorf("logo 解码失败: %w", err)
		}
		src = img
	default:
		return nil, false, fmt.Errorf("不支持的 logo 格式: %s", logo.Format)
	}

	// 等比缩放到 target×target 以内
	fitted := imaging.Fit(src, target, target, imaging.Lanczos)

	return flattenLogo(fitted, back), true, nil
}

// flattenLogo 把 Logo 压到背景色底板上：透明像素落到背景色，
// 纯白底也映射为背景色，使 Logo 与码面融为一体
func flattenLogo(logo image.Image, back color.NRGBA) image.Image {
	b := logo.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: back}, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), logo, b.Min, draw.Over)

	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if back == white {
		return out
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] == 0xff && out.Pix[i+1] == 0xff && out.Pix[i+2] == 0xff && out.Pix[i+3] == 0xff {
			out.Pix[i] = back.R
			out.Pix[i+1] = back.G
			out.Pix[i+2] = back.B
		}
	}
	return out
}
