package hybrid

import (
	"context"
	"fmt"
	"time"

	"dispomail/backend/internal/config"
	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
	"dispomail/backend/internal/storage/postgres"
	"dispomail/backend/internal/storage/redis"
)

// 地址解析缓存时间。webhook 对同一地址的命中非常集中，
// 短缓存即可挡掉绝大部分数据库查找。
const addressCacheTTL = 10 * time.Minute

// Store 混合存储：记录存关系库，计数器 / 限流 / 地址缓存走 Redis。
type Store struct {
	*postgres.Store
	cache *redis.Client
}

// NewStore 创建混合存储实例。
func NewStore(cfg *config.Config) (*Store, error) {
	var (
		sqlStore *postgres.Store
		err      error
	)

	switch cfg.Database.Type {
	case "mysql":
		sqlStore, err = postgres.NewMySQLStore(cfg.Database.DSN)
	case "postgres", "postgresql":
		sqlStore, err = postgres.NewStore(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s (supported: mysql, postgres)", cfg.Database.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cache, err := redis.New(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	return &Store{Store: sqlStore, cache: cache}, nil
}

// GetAddressByEmail 先查 Redis 缓存，未命中回源数据库并回填。
func (s *Store) GetAddressByEmail(email string) (*domain.Address, error) {
	if address, err := s.cache.GetCachedAddress(email); err == nil {
		return address, nil
	}

	address, err := s.Store.GetAddressByEmail(email)
	if err != nil {
		return nil, err
	}

	// 回填失败不影响查询结果
	_ = s.cache.CacheAddress(address, addressCacheTTL)
	return address, nil
}

// DeleteAddress 删除地址并使缓存失效，回收后的地址立即停止接收。
func (s *Store) DeleteAddress(id string) error {
	address, err := s.Store.GetAddress(id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteAddress(id); err != nil {
		return err
	}
	_ = s.cache.DeleteCachedAddress(address.Address)
	return nil
}

// IncrementDailyCounter 日计数走 Redis INCR。
func (s *Store) IncrementDailyCounter(date string) error {
	return s.cache.IncrementDailyCounter(date)
}

// GetDailyCounter 日计数从 Redis 读取。
func (s *Store) GetDailyCounter(date string) (int64, error) {
	return s.cache.GetDailyCounter(date)
}

// ListDailyCounters 最近计数从 Redis 读取。
func (s *Store) ListDailyCounters(limit int) ([]domain.DailyCounter, error) {
	return s.cache.ListDailyCounters(limit)
}

// IncrementRateLimit 限流计数走 Redis，多副本部署时计数全局一致。
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	return s.cache.IncrementRateLimit(key, window)
}

// GetRateLimit 读取限流计数。
func (s *Store) GetRateLimit(key string) (int64, error) {
	return s.cache.GetRateLimit(key)
}

// GetSystemStatistics 统计以关系库为准，今日计数用 Redis 的值覆盖。
func (s *Store) GetSystemStatistics() (*domain.SystemStatistics, error) {
	stats, err := s.Store.GetSystemStatistics()
	if err != nil {
		return nil, err
	}
	if today, err := s.cache.GetDailyCounter(domain.DateKey(time.Now())); err == nil {
		stats.EmailsToday = today
	}
	return stats, nil
}

// Health 数据库与 Redis 任一不可用即视为不健康。
func (s *Store) Health() error {
	if err := s.Store.Health(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.cache.Ping(ctx)
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	if err := s.cache.Close(); err != nil {
		return err
	}
	return s.Store.Close()
}

var _ storage.Store = (*Store)(nil)
