package model

import "time"

// ScanEvent 单次扫码事件，写入后不再修改
type ScanEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	QRCodeID  uint      `gorm:"index;not null" json:"qrCodeId"`
	ScannedAt time.Time `gorm:"index" json:"scannedAt"`
	ClientIP  string    `gorm:"size:45" json:"clientIp"`
	UserAgent string    `gorm:"type:text" json:"userAgent"`
	Device    string    `gorm:"size:64" json:"device"`
	Browser   string    `gorm:"size:64" json:"browser"`
	OS        string    `gorm:"size:64" json:"os"`
	IsGenuine bool      `json:"isGenuine"`
	CreatedAt time.Time `json:"createdAt"`
}

func (ScanEvent) TableName() string {
	return "scan_events"
}
