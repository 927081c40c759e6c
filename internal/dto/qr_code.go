package dto

import (
	"github.com/gin-gonic/gin"

	"qrlink-go/pkg/utils"
)

// CreateQRCodeRequest 创建二维码的请求参数
type CreateQRCodeRequest struct {
	QRType      string `json:"qrType" binding:"required,oneof=static dynamic"`
	Content     string `json:"content" binding:"max=2048"`               // 静态码内容
	RedirectURL string `json:"redirectUrl" binding:"omitempty,url"`      // 动态码跳转目标
	FillColor   string `json:"fillColor" binding:"omitempty,max=7"`
	BackColor   string `json:"backColor" binding:"omitempty,max=7"`
	Size        int    `json:"size" binding:"omitempty,min=1,max=50"`
	Border      int    `json:"border" binding:"omitempty,min=0,max=20"`
	ErrorLevel  string `json:"errorLevel" binding:"omitempty,oneof=L M Q H"`
	IncludeLogo bool   `json:"includeLogo"`
	LogoAsset   string `json:"logoAsset" binding:"omitempty,max=255"`
}

// Validate 自定义验证逻辑（绑定标签覆盖不到的跨字段规则）
func (r *CreateQRCodeRequest) Validate() error {
	if r.QRType == "static" {
		if err := utils.ValidateContent(r.Content); err != nil {
			return gin.Error{Err: err, Type: gin.ErrorTypeBind}
		}
	} else {
		if err := utils.ValidateTargetURL(r.RedirectURL); err != nil {
			return gin.Error{Err: err, Type: gin.ErrorTypeBind}
		}
	}
	return nil
}

// UpdateTargetRequest 更新动态码跳转目标的请求参数
type UpdateTargetRequest struct {
	RedirectURL string `json:"redirectUrl" binding:"required,url" msg:"redirectUrl must be a valid URL"`
}

// UpdateStatusRequest 启用/禁用
type UpdateStatusRequest struct {
	Status int `json:"status"` // 0 启用 1 禁用
}

// PreviewRequest 不落库、直接出图的请求参数
type PreviewRequest struct {
	Content     string  `json:"content" binding:"required,max=2048"`
	ImageFormat string  `json:"imageFormat"`
	Quality     int     `json:"quality"`
	Size        int     `json:"size"`
	Border      int     `json:"border"`
	FillColor   string  `json:"fillColor"`
	BackColor   string  `json:"backColor"`
	ErrorLevel  string  `json:"errorLevel" binding:"omitempty,oneof=L M Q H"`
	IncludeLogo bool    `json:"includeLogo"`
	LogoAsset   string  `json:"logoAsset" binding:"omitempty,max=255"`
	WidthMM     float64 `json:"widthMm"`
	HeightMM    float64 `json:"heightMm"`
	DPI         int     `json:"dpi"`
	Inline      bool    `json:"inline"`
}

// GenerationRequest 按需出图的查询参数（覆盖存储的渲染配置）。
// 数值字段用指针区分“未传”和“传了 0”。
type GenerationRequest struct {
	ImageFormat string  `form:"format"`
	Quality     *int    `form:"quality"`
	Size        *int    `form:"size"`
	Border      *int    `form:"border"`
	FillColor   string  `form:"fillColor"`
	BackColor   string  `form:"backColor"`
	ErrorLevel  string  `form:"errorLevel"`
	WidthMM     float64 `form:"widthMm"`
	HeightMM    float64 `form:"heightMm"`
	DPI         int     `form:"dpi"`
	Inline      bool    `form:"inline"` // SVG 输出包装为 data URI
}
