package service

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gomodule/redigo/redis"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/dto"
	"qrlink-go/internal/model"
	"qrlink-go/internal/repository"
	"qrlink-go/pkg/logging"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	logging.InitTestLogger()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.QRCode{}, &model.ScanEvent{}, &model.DailyStat{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewStore(db)
}

func createDynamic(t *testing.T, qrs *QRService, target string) *model.QRCode {
	t.Helper()
	qr, err := qrs.Create(context.Background(), dto.CreateQRCodeRequest{
		QRType:      model.QRTypeDynamic,
		RedirectURL: target,
	})
	if err != nil {
		t.Fatalf("create dynamic qr: %v", err)
	}
	return qr
}

// fakeRedisConn 内存实现，覆盖缓存与统计计数器用到的命令
type fakeRedisConn struct {
	mu     sync.Mutex
	store  map[string][]byte
	hashes map[string]map[string]int64
	sets   map[string]map[string]struct{}
	ints   map[string]int64
}

func (c *fakeRedisConn) Close() error { return nil }
func (c *fakeRedisConn) Err() error   { return nil }

func (c *fakeRedisConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch cmd {
	case "GET":
		if v, ok := c.store[args[0].(string)]; ok {
			return v, nil
		}
		return nil, nil
	case "SET":
		c.store[args[0].(string)] = args[1].([]byte)
		return "OK", nil
	case "DEL":
		delete(c.store, args[0].(string))
		return int64(1), nil
	case "HINCRBY":
		key, field := args[0].(string), args[1].(string)
		if c.hashes[key] == nil {
			c.hashes[key] = map[string]int64{}
		}
		c.hashes[key][field]++
		return c.hashes[key][field], nil
	case "HGET":
		key, field := args[0].(string), args[1].(string)
		if v, ok := c.hashes[key][field]; ok {
			return []byte(strconv.FormatInt(v, 10)), nil
		}
		return nil, nil
	case "PFADD":
		key, member := args[0].(string), args[1].(string)
		if c.sets[key] == nil {
			c.sets[key] = map[string]struct{}{}
		}
		c.sets[key][member] = struct{}{}
		return int64(1), nil
	case "PFCOUNT":
		return int64(len(c.sets[args[0].(string)])), nil
	case "INCR":
		c.ints[args[0].(string)]++
		return c.ints[args[0].(string)], nil
	case "EXPIRE":
		return int64(1), nil
	}
	return nil, nil
}

func (c *fakeRedisConn) Send(string, ...interface{}) error { return nil }
func (c *fakeRedisConn) Flush() error                      { return nil }
func (c *fakeRedisConn) Receive() (interface{}, error)     { return nil, nil }

func newFakeRedisPool() (*redis.Pool, *fakeRedisConn) {
	conn := &fakeRedisConn{
		store:  map[string][]byte{},
		hashes: map[string]map[string]int64{},
		sets:   map[string]map[string]struct{}{},
		ints:   map[string]int64{},
	}
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) { return conn, nil },
	}
	return pool, conn
}

func TestResolveKnownShortID(t *testing.T) {
	store := newTestStore(t)
	qrs := NewQRService(store, nil, "http://localhost:8080")
	queue := NewScanQueue(store, nil, 16)
	rs := NewRedirectService(store, nil, queue)

	qr := createDynamic(t, qrs, "https://example.com/landing")

	got, err := rs.Resolve(context.Background(), *qr.ShortID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.RedirectURL != "https://example.com/landing" {
		t.Errorf("redirect url = %q", got.RedirectURL)
	}
}

func TestResolveUnknownShortID(t *testing.T) {
	store := newTestStore(t)
	queue := NewScanQueue(store, nil, 16)
	rs := NewRedirectService(store, nil, queue)

	_, err := rs.Resolve(context.Background(), "n0tth3re")
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveMalformedShortID(t *testing.T) {
	store := newTestStore(t)
	queue := NewScanQueue(store, nil, 16)
	rs := NewRedirectService(store, nil, queue)

	for _, bad := range []string{"", "has space", "slash/id", "percent%"} {
		_, err := rs.Resolve(context.Background(), bad)
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			t.Errorf("Resolve(%q): expected not found, got %v", bad, err)
		}
	}
}

func TestResolveDisabledShortID(t *testing.T) {
	store := newTestStore(t)
	qrs := NewQRService(store, nil, "http://localhost:8080")
	queue := NewScanQueue(store, nil, 16)
	rs := NewRedirectService(store, nil, queue)

	qr := createDynamic(t, qrs, "https://example.com")
	if err := qrs.UpdateStatus(context.Background(), qr.ID, true); err != nil {
		t.Fatalf("disable: %v", err)
	}

	_, err := rs.Resolve(context.Background(), *qr.ShortID)
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("disabled code must resolve as not found, got %v", err)
	}
}

func TestResolveCacheHitKeepsScanRef(t *testing.T) {
	store := newTestStore(t)
	pool, fake := newFakeRedisPool()
	qrs := NewQRService(store, pool, "http://localhost:8080")
	queue := NewScanQueue(store, nil, 16)
	rs := NewRedirectService(store, pool, queue)

	qr := createDynamic(t, qrs, "https://example.com/landing")

	// 第一次解析：缓存未命中，回填缓存
	if _, err := rs.Resolve(context.Background(), *qr.ShortID); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if len(fake.store) == 0 {
		t.Fatal("resolve did not populate the cache")
	}

	// 删除数据库记录：第二次解析只能来自缓存
	if err := store.DB().Delete(qr).Error; err != nil {
		t.Fatalf("delete row: %v", err)
	}

	got, err := rs.Resolve(context.Background(), *qr.ShortID)
	if err != nil {
		t.Fatalf("cache-hit resolve: %v", err)
	}
	if got.RedirectURL != "https://example.com/landing" {
		t.Errorf("cached redirect url = %q", got.RedirectURL)
	}
	if got.ScanRef != qr.ScanRef {
		t.Fatalf("cache hit lost ScanRef: got %q, want %q", got.ScanRef, qr.ScanRef)
	}

	// 缓存命中返回的记录必须保持真实扫码判定
	meta := RequestMeta{UserAgent: chromeUA, ScanRef: qr.ScanRef}
	if !ClassifyGenuine(meta, got.ScanRef) {
		t.Error("genuine request misclassified as non-genuine on cache hit")
	}
}

func TestResolveNegativeCache(t *testing.T) {
	store := newTestStore(t)
	pool, fake := newFakeRedisPool()
	queue := NewScanQueue(store, nil, 16)
	rs := NewRedirectService(store, pool, queue)

	// 未知 shortID：缓存空值防穿透，后续命中空值同样返回不存在
	if _, err := rs.Resolve(context.Background(), "n0tth3re"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(fake.store) == 0 {
		t.Fatal("miss did not leave a negative cache entry")
	}
	if _, err := rs.Resolve(context.Background(), "n0tth3re"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Fatalf("expected not found from negative cache, got %v", err)
	}
}

func TestRecordScanCountsThroughQueue(t *testing.T) {
	store := newTestStore(t)
	qrs := NewQRService(store, nil, "http://localhost:8080")
	queue := NewScanQueue(store, nil, 256)
	queue.Start(2)
	rs := NewRedirectService(store, nil, queue)

	qr := createDynamic(t, qrs, "https://example.com")

	// 一半带合法凭证的真机扫码，一半是不带凭证的链接预览
	const n = 20
	for i := 0; i < n; i++ {
		meta := RequestMeta{ClientIP: "203.0.113.9", UserAgent: chromeUA}
		if i%2 == 0 {
			meta.ScanRef = qr.ScanRef
		}
		rs.RecordScan(qr, meta)
	}

	// Stop 排干队列，所有已入队事件落库
	queue.Stop()

	got, err := store.GetQRByID(context.Background(), qr.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ScanCount != n {
		t.Errorf("scan count = %d, want %d", got.ScanCount, n)
	}
	if got.GenuineScan != n/2 {
		t.Errorf("genuine scan count = %d, want %d", got.GenuineScan, n/2)
	}
	if got.LastScanAt == nil {
		t.Error("last_scan_at not set")
	}

	var events int64
	if err := store.DB().Model(&model.ScanEvent{}).Where("qr_code_id = ?", qr.ID).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != n {
		t.Errorf("scan events = %d, want %d", events, n)
	}
}

func TestRecordScanBotNotGenuine(t *testing.T) {
	store := newTestStore(t)
	qrs := NewQRService(store, nil, "http://localhost:8080")
	queue := NewScanQueue(store, nil, 16)
	queue.Start(1)
	rs := NewRedirectService(store, nil, queue)

	qr := createDynamic(t, qrs, "https://example.com")

	// 爬虫即便拿到了合法凭证也不计入真实扫码
	rs.RecordScan(qr, RequestMeta{UserAgent: googlebotUA, ScanRef: qr.ScanRef})
	queue.Stop()

	got, _ := store.GetQRByID(context.Background(), qr.ID)
	if got.ScanCount != 1 {
		t.Errorf("scan count = %d, want 1", got.ScanCount)
	}
	if got.GenuineScan != 0 {
		t.Errorf("genuine scan count = %d, want 0", got.GenuineScan)
	}
}

func TestScanQueueDropsWhenFull(t *testing.T) {
	store := newTestStore(t)
	logging.InitTestLogger()

	// 不启动写入协程，容量 1：第二个事件必然被丢弃
	queue := NewScanQueue(store, nil, 1)
	if !queue.Enqueue(scanJob{}) {
		t.Fatal("first enqueue should succeed")
	}
	if queue.Enqueue(scanJob{}) {
		t.Fatal("second enqueue should be dropped")
	}

	queue.Start(1)
	queue.Stop()
}

func TestScanQueueEnqueueAfterStop(t *testing.T) {
	store := newTestStore(t)
	queue := NewScanQueue(store, nil, 16)
	queue.Start(1)
	queue.Stop()

	if queue.Enqueue(scanJob{}) {
		t.Fatal("enqueue after stop must report a drop")
	}
	// Stop 幂等
	queue.Stop()
}
