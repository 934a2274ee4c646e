package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dispomail/backend/internal/monitoring"
	"dispomail/backend/internal/storage"
)

// Sweeper 保留期清理任务：周期性删除超过保留时长的邮件。
type Sweeper struct {
	store     storage.EmailRepository
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// NewSweeper 创建清理任务。retention 为邮件保留时长，interval 为运行间隔。
func NewSweeper(store storage.EmailRepository, retention, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Sweep 执行一次清理：删除创建时间早于 now-retention 的邮件，返回删除数量。
// 删除按记录幂等，连续调用第二次删除数为零。
func (s *Sweeper) Sweep(now time.Time) (int, error) {
	start := time.Now()
	cutoff := now.Add(-s.retention)

	deleted, err := s.store.DeleteEmailsBefore(cutoff)
	if err != nil {
		s.logger.Error("保留期清理失败", zap.Error(err))
		return 0, err
	}

	monitoring.RecordSweep(deleted, time.Since(start))
	if deleted > 0 {
		s.logger.Info("保留期清理完成",
			zap.Int("deleted", deleted),
			zap.Time("cutoff", cutoff))
	} else {
		s.logger.Debug("保留期清理完成，无过期邮件")
	}
	return deleted, nil
}

// Run 按配置的间隔循环执行清理，直到 ctx 取消。
// 启动时先跑一轮，清掉停机期间积累的过期邮件。
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.Sweep(time.Now()); err != nil {
		s.logger.Warn("启动清理失败，等待下一轮", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("清理任务退出")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(time.Now()); err != nil {
				s.logger.Warn("本轮清理失败，等待下一轮", zap.Error(err))
			}
		}
	}
}
