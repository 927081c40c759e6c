package qrcode

import (
	skip2 "github.com/skip2/go-qrcode"

	"qrlink-go/internal/apperrors"
)

func toRecoveryLevel(level Level) skip2.RecoveryLevel {
	switch level {
	case LevelL:
		return skip2.Low
	case LevelM:
		return skip2.Medium
	case LevelQ:
		return skip2.High
	case LevelH:
		return skip2.Highest
	default:
		return skip2.Medium
	}
}

// Encode 将内容编码为二维码点阵，版本取能容纳内容的最小版本。
// mustFitLogo 为 true 时按 Logo 策略强制 H 等级。
func Encode(content string, level Level, mustFitLogo bool) (*Matrix, error) {
	if content == "" {
		return nil, apperrors.ValidationError("content", "内容不能为空")
	}

	effective := EffectiveLevel(level, mustFitLogo)

	code, err := skip2.New(content, toRecoveryLevel(effective))
	if err != nil {
		// 底层仅在内容超出最大版本容量时报错
		return nil, apperrors.CapacityError("内容超出二维码最大容量（纠错等级 " + string(effective) + "）")
	}

	// 静区由渲染层按 border 参数绘制
	code.DisableBorder = true
	modules := code.Bitmap()

	return &Matrix{
		Modules:     modules,
		ModuleCount: len(modules),
		Level:       effective,
	}, nil
}
