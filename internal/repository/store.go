package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"qrlink-go/internal/model"
)

// ErrShortIDTaken shortID 唯一键冲突
var ErrShortIDTaken = errors.New("repository: short id already taken")

// Store 二维码与扫码事件的存储访问层。
// 扫码计数走列级原子自增，不做应用层读改写。
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 暴露底层连接给分页查询等场景
func (s *Store) DB() *gorm.DB {
	return s.db
}

// GetQRByID 按主键查询
func (s *Store) GetQRByID(ctx context.Context, id uint) (*model.QRCode, error) {
	var qr model.QRCode
	if err := s.db.WithContext(ctx).First(&qr, id).Error; err != nil {
		return nil, err
	}
	return &qr, nil
}

// GetQRByShortID 按 short_id 索引列查询（唯一索引，单列命中）。
// short_id 是一等列，绝不在请求期对 content 做模式匹配反推。
func (s *Store) GetQRByShortID(ctx context.Context, shortID string) (*model.QRCode, error) {
	var qr model.QRCode
	err := s.db.WithContext(ctx).
		Where("short_id = ?", shortID).
		First(&qr).Error
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// Create 新建二维码记录，short_id 冲突翻译为 ErrShortIDTaken
func (s *Store) Create(ctx context.Context, qr *model.QRCode) error {
	err := s.db.WithContext(ctx).Create(qr).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrShortIDTaken
	}
	return err
}

// AtomicIncrementScan 列级原子自增扫码计数并推进 last_scan_at。
// 并发自增可交换、不丢失；last_scan_at 只向前推进，乱序批次不会把它拉回去。
func (s *Store) AtomicIncrementScan(ctx context.Context, qrID uint, genuine bool, ts time.Time) error {
	updates := map[string]interface{}{
		"scan_count": gorm.Expr("scan_count + 1"),
		"last_scan_at": gorm.Expr(
			"CASE WHEN last_scan_at IS NULL OR last_scan_at < ? THEN ? ELSE last_scan_at END", ts, ts),
	}
	if genuine {
		updates["genuine_scan_count"] = gorm.Expr("genuine_scan_count + 1")
	}
	return s.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("id = ?", qrID).
		Updates(updates).Error
}

// InsertScanEvent 写入扫码事件（只插入，事件不可变）
func (s *Store) InsertScanEvent(ctx context.Context, ev *model.ScanEvent) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

// UpdateTargetURL 仅更新动态码的跳转目标，Content 保持不变（印刷出去的码面稳定）
func (s *Store) UpdateTargetURL(ctx context.Context, qrID uint, targetURL string) error {
	return s.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("id = ?", qrID).
		Update("redirect_url", targetURL).Error
}

// SetDisabled 启用/禁用二维码
func (s *Store) SetDisabled(ctx context.Context, qrID uint, disabled bool) error {
	return s.db.WithContext(ctx).
		Model(&model.QRCode{}).
		Where("id = ?", qrID).
		Update("disabled", disabled).Error
}

// UpsertDailyStat 覆盖写入某码某日的统计行
func (s *Store) UpsertDailyStat(ctx context.Context, stat *model.DailyStat) error {
	return s.db.WithContext(ctx).
		Where("qr_code_id = ? AND date = ?", stat.QRCodeID, stat.Date).
		Assign("scans", stat.Scans, "genuine_scans", stat.GenuineScans, "scanners", stat.Scanners).
		FirstOrCreate(stat).Error
}
