package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// GenerationAttempts 按格式与结果统计生成请求
	GenerationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_generation_attempts_total",
			Help: "Total QR image generation attempts.",
		},
		[]string{"format", "outcome"},
	)

	// GenerationDuration 生成耗时（编码+渲染）
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qr_generation_duration_seconds",
			Help:    "Duration of QR encode+render calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	// BreakerTransitions 熔断器状态迁移
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_breaker_transitions_total",
			Help: "Circuit breaker state transitions.",
		},
		[]string{"from", "to"},
	)

	// RedirectDuration 跳转响应耗时，与扫码落库路径无关
	RedirectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qr_redirect_duration_seconds",
			Help:    "Duration of short id redirect resolution in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// ScanQueueDropped 扫码写入队列满导致的丢弃
	ScanQueueDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_scan_queue_dropped_total",
			Help: "Scan events dropped because the write queue was full.",
		},
	)

	// ScanWriterFailures 后台写入失败（已记录日志，不重试不上抛）
	ScanWriterFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_scan_writer_failures_total",
			Help: "Background scan write failures.",
		},
	)

	// LogoDegraded SVG 转换能力缺失导致跳过 Logo 的次数
	LogoDegraded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_logo_degraded_total",
			Help: "Renders that skipped the logo due to missing conversion capability.",
		},
	)

	// ConversionAvailable SVG 栅格化能力是否可用（1/0）
	ConversionAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "qr_svg_conversion_available",
			Help: "Whether the optional SVG rasterization capability is present.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		GenerationAttempts,
		GenerationDuration,
		BreakerTransitions,
		RedirectDuration,
		ScanQueueDropped,
		ScanWriterFailures,
		LogoDegraded,
		ConversionAvailable,
	)
}
