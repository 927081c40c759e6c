package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/dto"
	"qrlink-go/internal/i18n"
	"qrlink-go/internal/model"
	"qrlink-go/internal/qrcode"
	"qrlink-go/internal/service"
	"qrlink-go/response"
)

// QRCodeHandler 二维码管理与出图接口
type QRCodeHandler struct {
	qrs   *service.QRService
	gen   *service.GenerationService
	stats *service.StatsService
}

func NewQRCodeHandler(qrs *service.QRService, gen *service.GenerationService, stats *service.StatsService) *QRCodeHandler {
	return &QRCodeHandler{qrs: qrs, gen: gen, stats: stats}
}

func (h *QRCodeHandler) Create(c *gin.Context) {
	var req dto.CreateQRCodeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		// 记录请求上下文（方法、路径）
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	qr, err := h.qrs.Create(c.Request.Context(), req)
	if err != nil {
		zap.L().Warn("QR code creation failed",
			zap.Error(err),
			zap.String("qr_type", req.QRType),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(qr, "QR code creation successful"))
}

// List 分页查询二维码列表
func (h *QRCodeHandler) List(c *gin.Context) {
	// 获取分页参数
	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("size", "10")
	qrType := c.Query("qrType")

	// 参数转换
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		_ = c.Error(apperrors.InvalidRequestError("页码必须为正整数"))
		return
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 || size > 100 {
		_ = c.Error(apperrors.InvalidRequestError("每页数量必须为1-100之间的整数"))
		return
	}

	// 调用服务层
	pageResp, err := h.qrs.List(c.Request.Context(), page, size, qrType)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// 构造响应
	c.JSON(http.StatusOK, response.OK(pageResp, "success"))
}

// UpdateTarget 更新动态码跳转目标
func (h *QRCodeHandler) UpdateTarget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	if err := h.qrs.UpdateTarget(c.Request.Context(), id, req.RedirectURL); err != nil {
		zap.L().Warn("QR target update failed",
			zap.Error(err),
			zap.Uint("id", id),
			zap.String("target_url", req.RedirectURL),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK("", "QR target update successful"))
}

// UpdateStatus 更新二维码状态（启用/禁用）
func (h *QRCodeHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestError("请求体格式错误"))
		return
	}

	// 校验 status 值
	if req.Status != 0 && req.Status != 1 {
		_ = c.Error(apperrors.InvalidRequestError("status 必须为 0 或 1"))
		return
	}

	if err := h.qrs.UpdateStatus(c.Request.Context(), id, req.Status == 1); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(struct{}{}, i18n.T(c.Request.Context(), "QRStatusUpdated", nil)))
}

// Image 按需出图：存储的渲染配置打底，查询参数覆盖
func (h *QRCodeHandler) Image(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.GenerationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	qr, err := h.qrs.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	p := mergeParams(qr, &req)
	level := qr.ErrorLevel
	if req.ErrorLevel != "" {
		level = req.ErrorLevel
	}

	res, err := h.gen.Generate(c.Request.Context(), qr.Content, level, qr.IncludeLogo, qr.LogoAsset, p)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// SVG 可按需包装为内联 data URI
	if req.Inline && res.MIME == qrcode.MIMESVG {
		c.JSON(http.StatusOK, response.OK(qrcode.WrapSVGDataURI(res.Data), "success"))
		return
	}

	c.Data(http.StatusOK, res.MIME, res.Data)
}

// Preview 不落库直接出图
func (h *QRCodeHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	p := &qrcode.Params{
		Format:    req.ImageFormat,
		Quality:   req.Quality,
		Size:      req.Size,
		Border:    req.Border,
		FillColor: req.FillColor,
		BackColor: req.BackColor,
		WidthMM:   req.WidthMM,
		HeightMM:  req.HeightMM,
		DPI:       req.DPI,
	}

	res, err := h.gen.Generate(c.Request.Context(), req.Content, req.ErrorLevel, req.IncludeLogo, req.LogoAsset, p)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if req.Inline && res.MIME == qrcode.MIMESVG {
		c.JSON(http.StatusOK, response.OK(qrcode.WrapSVGDataURI(res.Data), "success"))
		return
	}

	c.Data(http.StatusOK, res.MIME, res.Data)
}

// Stats 查询每日统计
func (h *QRCodeHandler) Stats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	stats, err := h.stats.GetStatsByQRCodeID(id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func parseID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id < 1 {
		_ = c.Error(apperrors.InvalidRequestError("无效的 ID"))
		return 0, false
	}
	return uint(id), true
}

// mergeParams 存储配置打底，查询参数覆盖
func mergeParams(qr *model.QRCode, req *dto.GenerationRequest) *qrcode.Params {
	p := &qrcode.Params{
		Format:    req.ImageFormat,
		Size:      qr.Size,
		Border:    qr.Border,
		FillColor: qr.FillColor,
		BackColor: qr.BackColor,
		WidthMM:   req.WidthMM,
		HeightMM:  req.HeightMM,
		DPI:       req.DPI,
	}
	if req.Quality != nil {
		p.Quality = *req.Quality
	}
	if req.Size != nil {
		p.Size = *req.Size
	}
	if req.Border != nil {
		p.Border = *req.Border
	}
	if req.FillColor != "" {
		p.FillColor = req.FillColor
	}
	if req.BackColor != "" {
		p.BackColor = req.BackColor
	}
	return p
}
