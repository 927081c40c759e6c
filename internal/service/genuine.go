package service

import (
	"github.com/google/uuid"
	"github.com/mileusna/useragent"
)

// RequestMeta 一次跳转请求携带的元信息
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	ScanRef   string // 随码签发的扫码凭证，链接预览爬虫不会带
}

// AgentInfo 从 User-Agent 解析出的设备信息
type AgentInfo struct {
	Device  string
	Browser string
	OS      string
	Bot     bool
}

// ParseAgent 解析 User-Agent
func ParseAgent(ua string) AgentInfo {
	parsed := useragent.Parse(ua)

	device := parsed.Device
	if device == "" {
		switch {
		case parsed.Mobile:
			device = "mobile"
		case parsed.Tablet:
			device = "tablet"
		case parsed.Desktop:
			device = "desktop"
		}
	}

	return AgentInfo{
		Device:  device,
		Browser: parsed.Name,
		OS:      parsed.OS,
		Bot:     parsed.Bot,
	}
}

// ClassifyGenuine 真实扫码判定，纯函数，不触碰写路径。
// 只有携带了该码签发的合法 scan_ref 且 UA 不是已知爬虫的请求才计入真实扫码；
// 不满足条件的请求照常跳转，只是不进真实扫码统计。
func ClassifyGenuine(meta RequestMeta, expectedRef string) bool {
	if meta.ScanRef == "" || expectedRef == "" {
		return false
	}
	if uuid.Validate(meta.ScanRef) != nil {
		return false
	}
	if meta.ScanRef != expectedRef {
		return false
	}
	return !ParseAgent(meta.UserAgent).Bot
}
