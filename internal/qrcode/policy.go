package qrcode

// EffectiveLevel 计算实际纠错等级。
// 带 Logo 时强制 H：Logo 会遮挡中心模块，低冗余等级可能导致无法识别。
func EffectiveLevel(requested Level, includeLogo bool) Level {
	if includeLogo {
		return LevelH
	}
	return requested
}
