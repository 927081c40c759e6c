package service

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/breaker"
	"qrlink-go/internal/metrics"
	"qrlink-go/internal/qrcode"
	"qrlink-go/internal/svgconv"
	"qrlink-go/pkg/logging"
)

// GenerationService 编排二维码生成：纯校验 → Logo 纠错策略 → 熔断保护下的
// 编码+渲染。所有生成入口共用同一个熔断器实例，渲染链路的系统性故障
// 对各调用点一视同仁。
type GenerationService struct {
	breaker *breaker.Breaker
	pool    *ants.Pool // 有界工作池，栅格化不占用请求协程
	conv    svgconv.Converter
	assets  AssetLoader
}

func NewGenerationService(b *breaker.Breaker, pool *ants.Pool, conv svgconv.Converter, assets AssetLoader) *GenerationService {
	return &GenerationService{
		breaker: b,
		pool:    pool,
		conv:    conv,
		assets:  assets,
	}
}

// IsBreakerFailure 熔断失败判定：参数校验和容量错误属调用方问题，
// 不消耗熔断额度；渲染类错误才计入
func IsBreakerFailure(err error) bool {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindCapacity:
		return false
	}
	return true
}

// Degraded SVG 转换能力是否缺失
func (s *GenerationService) Degraded() bool {
	return s.conv == nil
}

// Generate 生成二维码图片。levelStr 为请求的纠错等级（空值取 M），
// includeLogo 时实际等级强制 H。校验失败立即返回，绝不触碰熔断器。
func (s *GenerationService) Generate(ctx context.Context, content, levelStr string, includeLogo bool, logoRef string, p *qrcode.Params) (*qrcode.Result, error) {
	level, ok := qrcode.ParseLevel(levelStr)
	if !ok {
		return nil, apperrors.ValidationError("error_level", "error_level 必须为 L/M/Q/H 之一")
	}

	// Logo 资源在校验阶段加载，坏引用属于坏输入
	if includeLogo {
		asset, err := s.assets.Load(logoRef)
		if err != nil {
			metrics.GenerationAttempts.WithLabelValues(p.Format, "invalid").Inc()
			return nil, apperrors.ValidationError("logo_asset", "Logo 资源不可用: "+logoRef)
		}
		p.Logo = asset
	}

	p.Normalize()
	if appErr := p.Validate(); appErr != nil {
		metrics.GenerationAttempts.WithLabelValues(p.Format, "invalid").Inc()
		return nil, appErr
	}

	var res *qrcode.Result
	start := time.Now()
	err := s.breaker.Do(func() error {
		m, err := qrcode.Encode(content, level, includeLogo)
		if err != nil {
			return err
		}
		p.ApplyPhysical(m.ModuleCount)

		renderer, err := qrcode.ForFormat(p.Format, s.conv)
		if err != nil {
			return err
		}

		// CPU 密集的渲染提交到有界工作池，同步等待结果
		done := make(chan error, 1)
		if submitErr := s.pool.Submit(func() {
			r, renderErr := renderer.Render(m, p)
			res = r
			done <- renderErr
		}); submitErr != nil {
			return apperrors.RenderError("渲染任务提交失败", submitErr)
		}
		return <-done
	})
	metrics.GenerationDuration.WithLabelValues(p.Format).Observe(time.Since(start).Seconds())

	if errors.Is(err, breaker.ErrOpen) {
		metrics.GenerationAttempts.WithLabelValues(p.Format, "short_circuit").Inc()
		return nil, apperrors.ServiceUnavailableError("渲染服务暂时不可用，请稍后重试")
	}
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindValidation, apperrors.KindCapacity, apperrors.KindRender:
			metrics.GenerationAttempts.WithLabelValues(p.Format, "error").Inc()
			return nil, err
		default:
			metrics.GenerationAttempts.WithLabelValues(p.Format, "error").Inc()
			return nil, apperrors.RenderError("二维码渲染失败", err)
		}
	}

	if res.LogoSkipped {
		// 降级：转换能力缺失，Logo 被跳过，请求本身成功
		metrics.LogoDegraded.Inc()
		logging.Logger.Warn("Logo skipped: SVG conversion capability unavailable",
			zap.String("logo_asset", logoRef),
			zap.String("format", p.Format),
		)
	}

	metrics.GenerationAttempts.WithLabelValues(p.Format, "ok").Inc()
	return res, nil
}
