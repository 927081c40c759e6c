package model

import "time"

// 二维码类型
const (
	QRTypeStatic  = "static"
	QRTypeDynamic = "dynamic"
)

// QRCode 二维码记录。
// 动态码的 Content 存的是自身的跳转路径（含 scan_ref），不是外部目标地址，
// 因此修改 RedirectURL 不会改变已印刷的二维码图片。
type QRCode struct {
	BaseModel
	QRType      string     `gorm:"size:10;not null;default:static" json:"qrType"`
	Content     string     `gorm:"size:2048;not null" json:"content"`
	ShortID     *string    `gorm:"uniqueIndex;size:32" json:"shortId,omitempty"` // 仅动态码，分配后不可变
	RedirectURL string     `gorm:"size:2048" json:"redirectUrl,omitempty"`
	ScanRef     string     `gorm:"size:36" json:"-"` // 随码签发的扫码凭证
	FillColor   string     `gorm:"size:7;default:'#000000'" json:"fillColor"`
	BackColor   string     `gorm:"size:7;default:'#ffffff'" json:"backColor"`
	Size        int        `gorm:"default:10" json:"size"`
	Border      int        `gorm:"default:4" json:"border"`
	ErrorLevel  string     `gorm:"size:1;default:'M'" json:"errorLevel"`
	IncludeLogo bool       `json:"includeLogo"`
	LogoAsset   string     `gorm:"size:255" json:"logoAsset,omitempty"`
	Disabled    bool       `json:"disabled"`
	ScanCount   int64      `gorm:"default:0" json:"scanCount"`
	GenuineScan int64      `gorm:"column:genuine_scan_count;default:0" json:"genuineScanCount"`
	LastScanAt  *time.Time `json:"lastScanAt,omitempty"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}
