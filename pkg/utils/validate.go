package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"unicode"
)

// 参数取值范围
const (
	MinModuleSize = 1
	MaxModuleSize = 50
	MinBorder     = 0
	MaxBorder     = 20
	MinQuality    = 1
	MaxQuality    = 100
)

var (
	hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	shortIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateShortID 校验 shortID 是否合法
func ValidateShortID(shortID string) error {
	if shortID == "" {
		return fmt.Errorf("error.shortid_required")
	}

	if ContainsWhitespace(shortID) {
		return fmt.Errorf("error.shortid_cannot_contain_spaces")
	}

	if !shortIDPattern.MatchString(shortID) {
		return fmt.Errorf("error.shortid_invalid")
	}

	return nil
}

// ValidateHexColor 校验十六进制颜色值（#rrggbb）
func ValidateHexColor(color string) error {
	if !hexColorPattern.MatchString(color) {
		return fmt.Errorf("error.color_invalid")
	}
	return nil
}

// ValidateTargetURL 校验目标 URL 的合法性
func ValidateTargetURL(targetURL string) error {
	// 1. 检查目标 URL 是否为空
	if targetURL == "" {
		return fmt.Errorf("error.target_url_required")
	}

	// 2. URL 格式校验
	if _, err := url.ParseRequestURI(targetURL); err != nil {
		return fmt.Errorf("error.target_url_invalid")
	}

	// 3. URL 长度限制
	if len(targetURL) > 2048 {
		return fmt.Errorf("error.target_url_max_length")
	}
	return nil
}

// ValidateContent 校验二维码内容
func ValidateContent(content string) error {
	if content == "" {
		return fmt.Errorf("error.content_required")
	}
	if len(content) > 2048 {
		return fmt.Errorf("error.content_max_length")
	}
	return nil
}

// InRange 数值范围检查
func InRange(v, min, max int) bool {
	return v >= min && v <= max
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
