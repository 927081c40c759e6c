package constant

import (
	"fmt"
	"time"
)

// 常量定义
const (
	BasePrefix = "qrlink:"
	Separator  = ":"
)

// Redis 键模板
const (
	ShortID      = BasePrefix + "shortid:%s"
	DailyScan    = BasePrefix + "scan" + Separator + "%s"                       // qrlink:scan:yyyyMMdd
	DailyGenuine = BasePrefix + "genuine" + Separator + "%s"                    // qrlink:genuine:yyyyMMdd
	DailyScanner = BasePrefix + "scanner" + Separator + "%s" + Separator + "%s" // qrlink:scanner:yyyyMMdd:shortid
	TotalScans   = BasePrefix + "total_scans" + Separator + "%s"                // qrlink:total_scans:shortid
	TotalScanner = BasePrefix + "total_scanner" + Separator + "%s"              // qrlink:total_scanner:shortid
)

// GetShortIDKey 生成 shortID 缓存键
func GetShortIDKey(shortID string) string {
	return fmt.Sprintf(ShortID, shortID)
}

// GetDateKey 生成当前日期的键（格式：yyyyMMdd）
func GetDateKey() string {
	return time.Now().Format("20060102") // Go 中日期格式规则：2006-01-02
}

// GetDailyScanKey 生成每日扫码数键（格式：qrlink:scan:yyyyMMdd）
func GetDailyScanKey(date string) string {
	return fmt.Sprintf(DailyScan, date)
}

// GetDailyGenuineKey 生成每日真实扫码数键（格式：qrlink:genuine:yyyyMMdd）
func GetDailyGenuineKey(date string) string {
	return fmt.Sprintf(DailyGenuine, date)
}

// GetDailyScannerKey 生成每日独立扫码人数键（格式：qrlink:scanner:yyyyMMdd:shortid）
func GetDailyScannerKey(shortID, date string) string {
	return fmt.Sprintf(DailyScanner, date, shortID)
}

// GetTotalScansKey 生成总扫码数键（格式：qrlink:total_scans:shortid）
func GetTotalScansKey(shortID string) string {
	return fmt.Sprintf(TotalScans, shortID)
}

// GetTotalScannerKey 生成总独立扫码人数键（格式：qrlink:total_scanner:shortid）
func GetTotalScannerKey(shortID string) string {
	return fmt.Sprintf(TotalScanner, shortID)
}
