package service

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"qrlink-go/constant"
	"qrlink-go/internal/model"
	"qrlink-go/internal/repository"
	"qrlink-go/pkg/logging"
)

// RecordDailyScan 记录每日扫码数
func RecordDailyScan(conn redis.Conn, shortID string) {
	dailyKey := constant.GetDailyScanKey(constant.GetDateKey())

	_, err := conn.Do("HINCRBY", dailyKey, shortID, 1)
	if err != nil {
		logging.Logger.Error("Failed to record daily scan",
			zap.String("key", dailyKey),
			zap.String("short_id", shortID),
			zap.Error(err))
	}

	_, err = conn.Do("EXPIRE", dailyKey, 3*24*3600) // 3天过期
	if err != nil {
		logging.Logger.Error("Failed to record daily scan expire",
			zap.String("key", dailyKey),
			zap.String("short_id", shortID),
			zap.Error(err))
	}
}

// RecordDailyGenuine 记录每日真实扫码数（排除爬虫和无凭证请求）
func RecordDailyGenuine(conn redis.Conn, shortID string) {
	genuineKey := constant.GetDailyGenuineKey(constant.GetDateKey())

	_, err := conn.Do("HINCRBY", genuineKey, shortID, 1)
	if err != nil {
		logging.Logger.Error("Failed to record daily genuine scan",
			zap.String("key", genuineKey),
			zap.String("short_id", shortID),
			zap.Error(err))
	}

	_, err = conn.Do("EXPIRE", genuineKey, 3*24*3600) // 3天过期
	if err != nil {
		logging.Logger.Error("Failed to record daily genuine scan expire",
			zap.String("key", genuineKey),
			zap.String("short_id", shortID),
			zap.Error(err))
	}
}

// RecordDailyScanner 记录每日独立扫码人数（HyperLogLog 按 IP 估算）
func RecordDailyScanner(conn redis.Conn, shortID string, ip string) {
	scannerKey := constant.GetDailyScannerKey(shortID, constant.GetDateKey())

	_, err := conn.Do("PFADD", scannerKey, ip)
	if err != nil {
		logging.Logger.Error("Failed to record daily scanner",
			zap.String("key", scannerKey),
			zap.String("ip", ip),
			zap.Error(err))
	}

	_, err = conn.Do("EXPIRE", scannerKey, 3*24*3600) // 3天过期
	if err != nil {
		logging.Logger.Error("Failed to record daily scanner expire",
			zap.String("key", scannerKey),
			zap.String("short_id", shortID),
			zap.Error(err))
	}
}

// RecordTotalScans 记录总扫码数
func RecordTotalScans(conn redis.Conn, shortID string) {
	totalKey := constant.GetTotalScansKey(shortID)
	_, err := conn.Do("INCR", totalKey)
	if err != nil {
		logging.Logger.Error("Failed to record total scans",
			zap.String("key", totalKey),
			zap.String("short_id", shortID),
			zap.Error(err))
	}
}

// RecordTotalScanner 记录总独立扫码人数
func RecordTotalScanner(conn redis.Conn, shortID string, ip string) {
	totalKey := constant.GetTotalScannerKey(shortID)
	_, err := conn.Do("PFADD", totalKey, ip)
	if err != nil {
		logging.Logger.Error("Failed to record total scanner",
			zap.String("key", totalKey),
			zap.String("ip", ip),
			zap.Error(err))
	}
}

// GetDailyScans 获取某日期的扫码数
func GetDailyScans(conn redis.Conn, shortID string, date string) (int64, error) {
	dailyKey := constant.GetDailyScanKey(date)

	reply, err := conn.Do("HGET", dailyKey, shortID)
	if err != nil {
		logging.Logger.Error("Failed to get daily scans",
			zap.String("key", dailyKey),
			zap.String("short_id", shortID),
			zap.Error(err))
		return 0, err
	}

	result, err := redis.Int64(reply, err)
	if err != nil {
		return 0, err
	}

	return result, nil
}

// GetDailyGenuine 获取某日期的真实扫码数
func GetDailyGenuine(conn redis.Conn, shortID string, date string) (int64, error) {
	genuineKey := constant.GetDailyGenuineKey(date)

	reply, err := conn.Do("HGET", genuineKey, shortID)
	if err != nil {
		logging.Logger.Error("Failed to get daily genuine scans",
			zap.String("key", genuineKey),
			zap.String("short_id", shortID),
			zap.Error(err))
		return 0, err
	}

	result, err := redis.Int64(reply, err)
	if err != nil {
		return 0, err
	}

	return result, nil
}

// GetDailyScanners 获取某日期的独立扫码人数（PFCOUNT 查 HyperLogLog 基数）
func GetDailyScanners(conn redis.Conn, shortID string, date string) (int64, error) {
	scannerKey := constant.GetDailyScannerKey(shortID, date)

	reply, err := conn.Do("PFCOUNT", scannerKey)
	if err != nil {
		logging.Logger.Error("Failed to get daily scanners",
			zap.String("key", scannerKey),
			zap.String("short_id", shortID),
			zap.Error(err))
		return 0, err
	}

	result, err := redis.Int64(reply, err)
	if err != nil {
		return 0, err
	}

	return result, nil
}

// StatsService 定时把 Redis 实时计数器同步为 daily_stats 行
type StatsService struct {
	store *repository.Store
	pool  *redis.Pool
}

func NewStatsService(store *repository.Store, pool *redis.Pool) *StatsService {
	return &StatsService{store: store, pool: pool}
}

// SyncDailyStats 同步所有动态码的当日统计（由 cron 调用）。
// 无 Redis 时没有计数器可同步，直接返回。
func (s *StatsService) SyncDailyStats() error {
	if s.pool == nil {
		return nil
	}

	logging.Logger.Info("SyncDailyStats start")

	var codes []model.QRCode
	if err := s.store.DB().
		Where("qr_type = ? AND short_id IS NOT NULL", model.QRTypeDynamic).
		Find(&codes).Error; err != nil {
		logging.Logger.Error("获取二维码列表失败", zap.Error(err))
		return err
	}

	today := time.Now().Format("2006-01-02")
	dateKey := time.Now().Format("20060102")
	for _, qr := range codes {
		s.syncOne(qr, today, dateKey)
	}

	logging.Logger.Info("SyncDailyStats end")
	return nil
}

func (s *StatsService) syncOne(qr model.QRCode, today, dateKey string) {
	// 禁用超过一天的码跳过同步，计数器不会再变化
	if qr.Disabled && !qr.UpdatedAt.IsZero() {
		yesterday := time.Now().AddDate(0, 0, -1)
		if qr.UpdatedAt.Before(yesterday) {
			return
		}
	}

	shortID := *qr.ShortID

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

	scans, _ := GetDailyScans(conn, shortID, dateKey)
	genuine, _ := GetDailyGenuine(conn, shortID, dateKey)
	scanners, _ := GetDailyScanners(conn, shortID, dateKey)

	stat := &model.DailyStat{
		QRCodeID:     qr.ID,
		Date:         today,
		Scans:        scans,
		GenuineScans: genuine,
		Scanners:     scanners,
	}

	if err := s.store.UpsertDailyStat(context.Background(), stat); err != nil {
		logging.Logger.Error("Failed to insert or update daily stat",
			zap.Uint("qr_code_id", qr.ID),
			zap.String("date", today),
			zap.Int64("scans", scans),
			zap.Int64("genuine", genuine),
			zap.Error(err))
	}
}

// GetStatsByQRCodeID 获取统计信息
func (s *StatsService) GetStatsByQRCodeID(id uint) ([]model.DailyStat, error) {
	var stats []model.DailyStat
	err := s.store.DB().Where("qr_code_id = ?", id).Order("date DESC").Find(&stats).Error
	return stats, err
}
