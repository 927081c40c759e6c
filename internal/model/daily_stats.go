package model

// DailyStat 每日扫码统计，由定时任务从 Redis 计数器同步
type DailyStat struct {
	BaseModel
	QRCodeID     uint   `gorm:"index"`
	Date         string `gorm:"type:date;index"` // YYYY-MM-DD
	Scans        int64  `gorm:"default:0"`
	GenuineScans int64  `gorm:"default:0"`
	Scanners     int64  `gorm:"default:0"` // 独立扫码人数（HyperLogLog 估算）
}
