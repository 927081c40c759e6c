package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"qrlink-go/constant"
	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/dto"
	"qrlink-go/internal/model"
	"qrlink-go/internal/repository"
	"qrlink-go/pkg/logging"
	"qrlink-go/pkg/utils"
	"qrlink-go/response"
)

// QRService 二维码记录的增删改查与业务规则
type QRService struct {
	store        *repository.Store
	pool         *redis.Pool // 可为 nil（测试环境）
	redirectBase string      // 动态码内容的跳转路径前缀，如 https://qr.example.com
}

func NewQRService(store *repository.Store, pool *redis.Pool, redirectBase string) *QRService {
	return &QRService{
		store:        store,
		pool:         pool,
		redirectBase: strings.TrimRight(redirectBase, "/"),
	}
}

// Create 创建二维码。
// 动态码的 Content 固定为自身跳转路径（含 scan_ref 凭证），目标地址后续可改，
// 码面不变；shortID 冲突时重新生成一次，仍冲突则返回 ConflictError。
func (s *QRService) Create(ctx context.Context, req dto.CreateQRCodeRequest) (*model.QRCode, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.InvalidRequestError(err.Error())
	}

	if req.FillColor != "" {
		if err := utils.ValidateHexColor(req.FillColor); err != nil {
			return nil, apperrors.ValidationError("fill_color", "fill_color 必须为 #rrggbb 格式")
		}
	}
	if req.BackColor != "" {
		if err := utils.ValidateHexColor(req.BackColor); err != nil {
			return nil, apperrors.ValidationError("back_color", "back_color 必须为 #rrggbb 格式")
		}
	}

	qr := &model.QRCode{
		QRType:      req.QRType,
		FillColor:   req.FillColor,
		BackColor:   req.BackColor,
		Size:        req.Size,
		Border:      req.Border,
		ErrorLevel:  req.ErrorLevel,
		IncludeLogo: req.IncludeLogo,
		LogoAsset:   req.LogoAsset,
	}
	if qr.Border == 0 {
		qr.Border = 4
	}

	if req.QRType == model.QRTypeStatic {
		qr.Content = req.Content
		if err := s.store.Create(ctx, qr); err != nil {
			logging.Logger.Warn("创建二维码失败", zap.Error(err))
			return nil, apperrors.SystemErrorDefault()
		}
		return qr, nil
	}

	// 动态码：生成 shortID + scan_ref，冲突时重试一次
	qr.RedirectURL = req.RedirectURL
	qr.ScanRef = uuid.NewString()

	for attempt := 0; attempt < 2; attempt++ {
		shortID, err := NewShortID()
		if err != nil {
			logging.Logger.Error("生成 shortID 失败", zap.Error(err))
			return nil, apperrors.SystemErrorDefault()
		}

		qr.ShortID = &shortID
		qr.Content = s.redirectBase + "/r/" + shortID + "?scan_ref=" + qr.ScanRef

		err = s.store.Create(ctx, qr)
		if err == nil {
			return qr, nil
		}
		if errors.Is(err, repository.ErrShortIDTaken) {
			logging.Logger.Warn("shortID 冲突，重新生成",
				zap.String("short_id", shortID),
				zap.Int("attempt", attempt))
			continue
		}
		logging.Logger.Warn("创建二维码失败", zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	return nil, apperrors.ConflictError("shortID 冲突，请重试")
}

// Get 按主键查询
func (s *QRService) Get(ctx context.Context, id uint) (*model.QRCode, error) {
	qr, err := s.store.GetQRByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError("二维码不存在")
		}
		logging.Logger.Warn("查询二维码失败", zap.Uint("id", id), zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}
	return qr, nil
}

// UpdateTarget 仅更新动态码的跳转目标。Content 不动，已印刷的码面保持稳定。
func (s *QRService) UpdateTarget(ctx context.Context, id uint, targetURL string) error {
	qr, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if qr.QRType != model.QRTypeDynamic {
		return apperrors.BusinessError(http.StatusBadRequest, "静态码不支持修改跳转目标")
	}

	// 校验目标 URL（复用公共逻辑）
	if err := utils.ValidateTargetURL(targetURL); err != nil {
		return apperrors.InvalidRequestError(err.Error())
	}

	if qr.RedirectURL == targetURL {
		return nil // 无需更新
	}

	if err := s.store.UpdateTargetURL(ctx, id, targetURL); err != nil {
		logging.Logger.Warn("更新跳转目标失败",
			zap.Uint("id", id),
			zap.String("target_url", targetURL),
			zap.Error(err))
		return apperrors.SystemErrorDefault()
	}

	// 目标变了，旧缓存必须失效
	if qr.ShortID != nil {
		s.dropCache(*qr.ShortID)
	}
	return nil
}

// UpdateStatus 启用/禁用二维码
func (s *QRService) UpdateStatus(ctx context.Context, id uint, disabled bool) error {
	qr, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.SetDisabled(ctx, id, disabled); err != nil {
		logging.Logger.Error("更新二维码状态失败",
			zap.Uint("id", id),
			zap.Bool("disabled", disabled),
			zap.Error(err))
		return apperrors.SystemError("更新二维码状态失败: " + err.Error())
	}

	if qr.ShortID != nil {
		s.dropCache(*qr.ShortID)
	}
	return nil
}

// List 支持分页查询二维码列表
func (s *QRService) List(ctx context.Context, page, size int, qrType string) (*response.PageResponse[model.QRCode], error) {
	// 参数校验
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10 // 默认每页10条，最大100条
	}

	// 构建查询条件
	db := s.store.DB().WithContext(ctx).Model(&model.QRCode{})
	if qrType != "" {
		db = db.Where("qr_type = ?", qrType)
	}

	// 查询总记录数
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperrors.SystemError("统计二维码记录数失败: " + err.Error())
	}

	// 如果总数为0，直接返回空结果，不执行分页查询
	if total == 0 {
		return &response.PageResponse[model.QRCode]{
			Page:      page,
			Size:      size,
			Total:     0,
			TotalPage: 0,
			List:      []model.QRCode{},
		}, nil
	}

	// 查询分页数据
	var codes []model.QRCode
	if err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("id DESC").
		Find(&codes).Error; err != nil {
		logging.Logger.Warn("数据库操作失败", zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	// 计算总页数
	totalPage := (int(total) + size - 1) / size

	return &response.PageResponse[model.QRCode]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      codes,
	}, nil
}

// dropCache 删除 shortID 对应的 Redis 缓存
func (s *QRService) dropCache(shortID string) {
	if s.pool == nil {
		return
	}

	conn := s.pool.Get()
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger.Error("Failed to close Redis connection",
				zap.Error(err),
				zap.String("operation", "close"),
				zap.String("connection_type", "redis"),
			)
		}
	}()

	cacheKey := constant.GetShortIDKey(shortID)
	if _, err := conn.Do("DEL", cacheKey); err != nil {
		logging.Logger.Warn("Redis 删除缓存失败",
			zap.String("cache_key", cacheKey),
			zap.Error(err))
	}
}
