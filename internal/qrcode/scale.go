package qrcode

import "math"

// 毫米转英寸系数
const mmPerInch = 25.4

// DeriveSize 由物理尺寸和 DPI 推导每模块像素数。
// 目标像素 = mm / 25.4 * dpi，取宽高中较小者；
// size = floor(目标像素 / (模块数 + 2*border))，并收敛到 [1,50]。
func DeriveSize(moduleCount, border int, widthMM, heightMM float64, dpi int) int {
	minMM := widthMM
	if heightMM < minMM {
		minMM = heightMM
	}
	targetPixels := minMM / mmPerInch * float64(dpi)

	total := moduleCount + 2*border
	if total <= 0 {
		return 1
	}

	size := int(math.Floor(targetPixels / float64(total)))
	if size < 1 {
		size = 1
	}
	if size > 50 {
		size = 50
	}
	return size
}
