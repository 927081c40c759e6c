package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qrlink-go/internal/metrics"
	"qrlink-go/internal/service"
)

// RedirectHandler 短标识跳转入口
type RedirectHandler struct {
	redirect *service.RedirectService
}

func NewRedirectHandler(redirect *service.RedirectService) *RedirectHandler {
	return &RedirectHandler{redirect: redirect}
}

// Redirect 解析 shortID 并跳转。响应先发出，扫码记录随后入队：
// 跳转延迟与写路径无关，客户端断开也不影响已入队事件落库。
func (h *RedirectHandler) Redirect(c *gin.Context) {
	shortID := c.Param("shortID")
	start := time.Now()

	qr, err := h.redirect.Resolve(c.Request.Context(), shortID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// 动态目标，不允许中间缓存
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, qr.RedirectURL)
	metrics.RedirectDuration.Observe(time.Since(start).Seconds())

	// 响应已写出，之后才调度扫码记录
	h.redirect.RecordScan(qr, service.RequestMeta{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		ScanRef:   c.Query("scan_ref"),
	})
}
