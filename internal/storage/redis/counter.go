package redis

import (
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

// ========== 日计数器 ==========

// IncrementDailyCounter 用 INCR 做可交换自增，并发写入不丢失更新。
func (c *Client) IncrementDailyCounter(date string) error {
	return c.rdb.Incr(c.ctx, counterKey(date)).Err()
}

// GetDailyCounter 读取指定日期的计数，不存在返回 0。
func (c *Client) GetDailyCounter(date string) (int64, error) {
	n, err := c.rdb.Get(c.ctx, counterKey(date)).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	return n, err
}

// ListDailyCounters 返回最近 limit 天的计数（含计数为零的日期不补全）。
func (c *Client) ListDailyCounters(limit int) ([]domain.DailyCounter, error) {
	result := make([]domain.DailyCounter, 0, limit)
	day := time.Now().UTC()
	for i := 0; i < limit; i++ {
		date := domain.DateKey(day)
		n, err := c.GetDailyCounter(date)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			result = append(result, domain.DailyCounter{Date: date, ReceivedCount: n})
		}
		day = day.AddDate(0, 0, -1)
	}
	return result, nil
}

func counterKey(date string) string {
	return fmt.Sprintf("counter:daily:%s", date)
}

// ========== 限流计数 ==========

// IncrementRateLimit 自增限流计数，首次写入设置窗口过期时间。
func (c *Client) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	rk := fmt.Sprintf("ratelimit:%s", key)
	n, err := c.rdb.Incr(c.ctx, rk).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		c.rdb.Expire(c.ctx, rk, window)
	}
	return n, nil
}

// GetRateLimit 读取当前窗口的限流计数。
func (c *Client) GetRateLimit(key string) (int64, error) {
	n, err := c.rdb.Get(c.ctx, fmt.Sprintf("ratelimit:%s", key)).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	return n, err
}

// ========== 地址缓存 ==========

// CacheAddress 缓存地址解析结果，加速 webhook 的收件人查找。
func (c *Client) CacheAddress(address *domain.Address, ttl time.Duration) error {
	data, err := json.Marshal(address)
	if err != nil {
		return err
	}
	return c.rdb.Set(c.ctx, addressKey(address.Address), data, ttl).Err()
}

// GetCachedAddress 读取缓存的地址解析结果。
func (c *Client) GetCachedAddress(email string) (*domain.Address, error) {
	data, err := c.rdb.Get(c.ctx, addressKey(email)).Result()
	if err == goredis.Nil {
		return nil, storage.ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}

	var address domain.Address
	if err := json.Unmarshal([]byte(data), &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// DeleteCachedAddress 删除地址缓存（地址被回收时调用）。
func (c *Client) DeleteCachedAddress(email string) error {
	return c.rdb.Del(c.ctx, addressKey(email)).Err()
}

func addressKey(email string) string {
	return fmt.Sprintf("address:%s", email)
}
