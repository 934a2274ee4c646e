package service

import (
	"time"

	"go.uber.org/zap"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

// StatsService 管理端统计查询。
type StatsService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewStatsService 创建统计服务。
func NewStatsService(store storage.Store, logger *zap.Logger) *StatsService {
	return &StatsService{store: store, logger: logger}
}

// Overview 返回系统全量统计：用户数、地址数、邮件数、今日接收量、
// 按域名分布与最近的日计数序列。
func (s *StatsService) Overview() (*domain.SystemStatistics, error) {
	return s.store.GetSystemStatistics()
}

// Today 返回今日（UTC）的接收计数。
func (s *StatsService) Today() (int64, error) {
	return s.store.GetDailyCounter(domain.DateKey(time.Now()))
}

// RecentCounters 返回最近 limit 天的日计数。
func (s *StatsService) RecentCounters(limit int) ([]domain.DailyCounter, error) {
	return s.store.ListDailyCounters(limit)
}
