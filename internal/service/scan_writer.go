package service

import (
	"context"
	"sync"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"qrlink-go/internal/metrics"
	"qrlink-go/internal/model"
	"qrlink-go/internal/repository"
	"qrlink-go/pkg/logging"
)

type scanJob struct {
	event   model.ScanEvent
	shortID string
	genuine bool
}

// ScanQueue 扫码事件的后台写入队列。
// 跳转响应先行，写入方独立消费，不绑定请求生命周期：连接断开后
// 已入队的事件照常落库，统计完整性优先于取消信号。
// 写入失败只记日志和计数，不无限重试，也永不上抛给已完成的跳转。
type ScanQueue struct {
	ch    chan scanJob
	store *repository.Store
	pool  *redis.Pool // 可为 nil，nil 时跳过实时计数器

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewScanQueue(store *repository.Store, pool *redis.Pool, size int) *ScanQueue {
	if size <= 0 {
		size = 1024
	}
	return &ScanQueue{
		ch:    make(chan scanJob, size),
		store: store,
		pool:  pool,
	}
}

// Start 启动 n 个写入协程
func (q *ScanQueue) Start(n int) {
	if n <= 0 {
		n = 2
	}
	for i := 0; i < n; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Enqueue 非阻塞入队。队列满或已关闭时丢弃并计数，返回 false。
func (q *ScanQueue) Enqueue(job scanJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		metrics.ScanQueueDropped.Inc()
		return false
	}

	select {
	case q.ch <- job:
		return true
	default:
		metrics.ScanQueueDropped.Inc()
		logging.Logger.Warn("扫码事件队列已满，事件被丢弃",
			zap.Uint("qr_code_id", job.event.QRCodeID))
		return false
	}
}

// Stop 关闭队列并等待已入队事件全部落库（优雅退出时调用）
func (q *ScanQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *ScanQueue) worker() {
	defer q.wg.Done()

	for job := range q.ch {
		q.write(job)
	}
}

func (q *ScanQueue) write(job scanJob) {
	// 写路径不继承请求上下文
	ctx := context.Background()

	// 列级原子自增，并发扫码不丢计数
	if err := q.store.AtomicIncrementScan(ctx, job.event.QRCodeID, job.genuine, job.event.ScannedAt); err != nil {
		metrics.ScanWriterFailures.Inc()
		logging.Logger.Error("扫码计数更新失败",
			zap.Uint("qr_code_id", job.event.QRCodeID),
			zap.Error(err))
	}

	if err := q.store.InsertScanEvent(ctx, &job.event); err != nil {
		metrics.ScanWriterFailures.Inc()
		logging.Logger.Error("扫码事件写入失败",
			zap.Uint("qr_code_id", job.event.QRCodeID),
			zap.Error(err))
	}

	if q.pool == nil || job.shortID == "" {
		return
	}

	conn := q.pool.Get()
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger.Error("Failed to close Redis connection",
				zap.Error(err),
				zap.String("operation", "close"),
				zap.String("connection_type", "redis"),
			)
		}
	}()

	// 实时计数器，供每日统计同步任务消费
	RecordDailyScan(conn, job.shortID)
	RecordDailyScanner(conn, job.shortID, job.event.ClientIP)
	RecordTotalScans(conn, job.shortID)
	RecordTotalScanner(conn, job.shortID, job.event.ClientIP)
	if job.genuine {
		RecordDailyGenuine(conn, job.shortID)
	}
}
