package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"qrlink-go/constant"
	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/model"
	"qrlink-go/internal/repository"
	"qrlink-go/pkg/logging"
	"qrlink-go/pkg/utils"
)

// RedirectService 短标识跳转解析。查询走 short_id 唯一索引（Redis 缓存在前），
// 扫码记录通过队列异步落库，跳转响应不等写路径。
type RedirectService struct {
	store *repository.Store
	pool  *redis.Pool // 可为 nil（测试环境），nil 时直查数据库
	queue *ScanQueue
}

func NewRedirectService(store *repository.Store, pool *redis.Pool, queue *ScanQueue) *RedirectService {
	return &RedirectService{
		store: store,
		pool:  pool,
		queue: queue,
	}
}

// cachedQRCode 缓存载荷。ScanRef 在 API JSON 中是隐藏字段（json:"-"），
// 但缓存回放必须原样带回，否则缓存命中的请求全部判为非真实扫码。
type cachedQRCode struct {
	model.QRCode
	ScanRef string `json:"scanRef"`
}

// Resolve 解析 shortID 到目标地址。未知或禁用的 shortID 返回 NotFoundError，
// 不产生任何写入。
func (s *RedirectService) Resolve(ctx context.Context, shortID string) (*model.QRCode, error) {
	if err := utils.ValidateShortID(shortID); err != nil {
		return nil, apperrors.NotFoundError("短链接不存在")
	}

	var conn redis.Conn
	if s.pool != nil {
		conn = s.pool.Get()
		defer func() {
			if err := conn.Close(); err != nil {
				logging.Logger.Error("Failed to close Redis connection",
					zap.Error(err),
					zap.String("operation", "close"),
					zap.String("connection_type", "redis"),
				)
			}
		}()
	}

	cacheKey := constant.GetShortIDKey(shortID)

	// 从 Redis 中查询缓存
	if conn != nil {
		cachedValue, err := redis.Bytes(conn.Do("GET", cacheKey))
		if err == nil {
			if len(cachedValue) == 0 {
				// 空值缓存：已知不存在/已禁用
				return nil, apperrors.NotFoundError("短链接不存在")
			}
			var cached cachedQRCode
			if err := json.Unmarshal(cachedValue, &cached); err == nil {
				qr := cached.QRCode
				qr.ScanRef = cached.ScanRef
				return &qr, nil
			}
			logging.Logger.Warn("Failed to unmarshal cached value",
				zap.String("cache_key", cacheKey),
				zap.Error(err))
		} else if !errors.Is(err, redis.ErrNil) {
			logging.Logger.Warn("Error getting from Redis",
				zap.String("cache_key", cacheKey),
				zap.Error(err))
		}
	}

	// 缓存未命中，从数据库查询
	qr, err := s.store.GetQRByShortID(ctx, shortID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Logger.Warn("查询 shortID 失败",
				zap.String("short_id", shortID),
				zap.Error(err))
			return nil, apperrors.SystemErrorDefault()
		}
		// 缓存空值，防止缓存穿透
		s.cacheSet(conn, cacheKey, []byte{}, 300)
		return nil, apperrors.NotFoundError("短链接不存在")
	}

	if qr.Disabled {
		s.cacheSet(conn, cacheKey, []byte{}, 300)
		return nil, apperrors.NotFoundError("短链接不存在")
	}

	// 缓存结果（1小时）
	if cached, err := json.Marshal(cachedQRCode{QRCode: *qr, ScanRef: qr.ScanRef}); err == nil {
		s.cacheSet(conn, cacheKey, cached, 3600)
	}

	return qr, nil
}

// RecordScan 记录一次扫码，对调用方永不报错。
// 事件入队即返回；队列满时丢弃并计数，跳转结果不受影响。
func (s *RedirectService) RecordScan(qr *model.QRCode, meta RequestMeta) {
	genuine := ClassifyGenuine(meta, qr.ScanRef)
	agent := ParseAgent(meta.UserAgent)

	shortID := ""
	if qr.ShortID != nil {
		shortID = *qr.ShortID
	}

	job := scanJob{
		event: model.ScanEvent{
			QRCodeID:  qr.ID,
			ScannedAt: time.Now(),
			ClientIP:  meta.ClientIP,
			UserAgent: meta.UserAgent,
			Device:    agent.Device,
			Browser:   agent.Browser,
			OS:        agent.OS,
			IsGenuine: genuine,
		},
		shortID: shortID,
		genuine: genuine,
	}

	s.queue.Enqueue(job)
}

func (s *RedirectService) cacheSet(conn redis.Conn, key string, value []byte, ttl int) {
	if conn == nil {
		return
	}
	if _, err := conn.Do("SET", key, value, "EX", ttl); err != nil {
		logging.Logger.Error("设置缓存失败",
			zap.String("cache_key", key),
			zap.Error(err),
		)
	}
}
