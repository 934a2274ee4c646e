package postgres

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

// Store 关系型存储实现（PostgreSQL / MySQL，经由 GORM）。
type Store struct {
	db *gorm.DB

	// 限流计数在进程内维护；部署多副本时由 hybrid 存储切换到 Redis。
	rlMu       sync.Mutex
	rateLimits map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count     int64
	expiresAt time.Time
}

// NewStore 创建 PostgreSQL 存储实例。
func NewStore(dsn string) (*Store, error) {
	return NewStoreWithDialector(postgres.Open(dsn))
}

// NewMySQLStore 创建 MySQL 存储实例。
func NewMySQLStore(dsn string) (*Store, error) {
	return NewStoreWithDialector(mysql.Open(dsn))
}

// NewStoreWithDialector 使用指定的 GORM dialector 创建存储实例。
func NewStoreWithDialector(dialector gorm.Dialector) (*Store, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // 把驱动层唯一键冲突翻译成 gorm.ErrDuplicatedKey
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	store := &Store{
		db:         db,
		rateLimits: make(map[string]*rateLimitEntry),
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate 自动迁移数据库表结构。
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&domain.User{},
		&domain.Address{},
		&domain.Email{},
		&domain.MailDomain{},
		&domain.DailyCounter{},
		&domain.Administrator{},
	)
}

// ========== Address Repository ==========

// CreateAddress 在单个事务内完成配额检查与写入；唯一索引兜底地址冲突。
// 两个并发分配请求无法同时越过配额检查。
func (s *Store) CreateAddress(address *domain.Address, maxAddresses int) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if maxAddresses >= 0 {
			var owned int64
			if err := tx.Model(&domain.Address{}).
				Where("user_id = ?", address.UserID).
				Count(&owned).Error; err != nil {
				return err
			}
			if owned >= int64(maxAddresses) {
				return storage.ErrQuotaExceeded
			}
		}
		return tx.Create(address).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrAddressExists
	}
	return err
}

// GetAddress 根据 ID 获取地址。
func (s *Store) GetAddress(id string) (*domain.Address, error) {
	var address domain.Address
	if err := s.db.Where("id = ?", id).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrAddressNotFound
		}
		return nil, err
	}
	return &address, nil
}

// GetAddressByEmail 根据小写规范地址字符串获取地址。
func (s *Store) GetAddressByEmail(email string) (*domain.Address, error) {
	var address domain.Address
	if err := s.db.Where("address = ?", email).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrAddressNotFound
		}
		return nil, err
	}
	return &address, nil
}

// ListAddressesByUserID 返回指定用户的全部地址。
func (s *Store) ListAddressesByUserID(userID string) []domain.Address {
	var addresses []domain.Address
	s.db.Where("user_id = ?", userID).Order("created_at").Find(&addresses)
	return addresses
}

// CountAddressesByUserID 统计指定用户当前持有的地址数量。
func (s *Store) CountAddressesByUserID(userID string) (int, error) {
	var count int64
	err := s.db.Model(&domain.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

// DeleteAddress 删除指定地址。邮件是弱引用，不做级联删除。
func (s *Store) DeleteAddress(id string) error {
	res := s.db.Where("id = ?", id).Delete(&domain.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrAddressNotFound
	}
	return nil
}

// ========== Email Repository ==========

// SaveEmail 保存邮件。
func (s *Store) SaveEmail(email *domain.Email) error {
	return s.db.Create(email).Error
}

// GetEmail 根据 ID 获取邮件。
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	var email domain.Email
	if err := s.db.Where("id = ?", id).First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrEmailNotFound
		}
		return nil, err
	}
	return &email, nil
}

// ListEmailsByUserID 返回指定用户的全部邮件，按接收时间倒序。
func (s *Store) ListEmailsByUserID(userID string) ([]domain.Email, error) {
	var emails []domain.Email
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&emails).Error
	return emails, err
}

// MarkEmailRead 标记邮件为已读。
func (s *Store) MarkEmailRead(id string) error {
	res := s.db.Model(&domain.Email{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrEmailNotFound
	}
	return nil
}

// DeleteEmail 删除单封邮件。
func (s *Store) DeleteEmail(id string) error {
	res := s.db.Where("id = ?", id).Delete(&domain.Email{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrEmailNotFound
	}
	return nil
}

// DeleteEmailsBefore 单条语句批量删除过期邮件，整批要么提交要么回滚。
func (s *Store) DeleteEmailsBefore(cutoff time.Time) (int, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&domain.Email{})
	return int(res.RowsAffected), res.Error
}

// ========== Domain Repository ==========

// UpsertDomain 以域名为键写入；冲突时覆盖激活标记、时间戳与创建者。
func (s *Store) UpsertDomain(d *domain.MailDomain) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "created_at", "created_by"}),
	}).Create(d).Error
}

// GetDomain 根据域名获取记录。
func (s *Store) GetDomain(name string) (*domain.MailDomain, error) {
	var d domain.MailDomain
	if err := s.db.Where("name = ?", name).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrDomainNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListDomains 返回全部域名。
func (s *Store) ListDomains() ([]*domain.MailDomain, error) {
	var domains []*domain.MailDomain
	err := s.db.Order("name").Find(&domains).Error
	return domains, err
}

// ListActiveDomains 返回全部已激活域名。
func (s *Store) ListActiveDomains() ([]*domain.MailDomain, error) {
	var domains []*domain.MailDomain
	err := s.db.Where("is_active = ?", true).Order("name").Find(&domains).Error
	return domains, err
}

// DeleteDomain 删除域名记录。
func (s *Store) DeleteDomain(name string) error {
	res := s.db.Where("name = ?", name).Delete(&domain.MailDomain{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrDomainNotFound
	}
	return nil
}

// ========== Counter Repository ==========

// IncrementDailyCounter 条件自增：INSERT .. ON CONFLICT .. received_count + 1。
// 自增在存储端完成，可交换，并发写入不丢失更新。
func (s *Store) IncrementDailyCounter(date string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"received_count": gorm.Expr("daily_counters.received_count + 1"),
		}),
	}).Create(&domain.DailyCounter{Date: date, ReceivedCount: 1}).Error
}

// GetDailyCounter 获取指定日期的计数，不存在返回 0。
func (s *Store) GetDailyCounter(date string) (int64, error) {
	var counter domain.DailyCounter
	if err := s.db.Where("date = ?", date).First(&counter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return counter.ReceivedCount, nil
}

// ListDailyCounters 返回最近 limit 天的计数，按日期倒序。
func (s *Store) ListDailyCounters(limit int) ([]domain.DailyCounter, error) {
	var counters []domain.DailyCounter
	q := s.db.Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&counters).Error
	return counters, err
}

// ========== User Repository ==========

// CreateUser 创建用户，注册邮箱唯一。
func (s *Store) CreateUser(user *domain.User) error {
	err := s.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrUserExists
	}
	return err
}

// GetUserByID 根据 ID 获取用户。
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail 根据注册邮箱获取用户。
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser 更新用户信息。
func (s *Store) UpdateUser(user *domain.User) error {
	return s.db.Save(user).Error
}

// UpdateLastLogin 更新最后登录时间。
func (s *Store) UpdateLastLogin(userID string) error {
	return s.db.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now().UTC()).Error
}

// ========== Admin Repository ==========

// AddAdministrator 写入管理员成员资格（幂等）。
func (s *Store) AddAdministrator(admin *domain.Administrator) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(admin).Error
}

// RemoveAdministrator 移除管理员成员资格。
func (s *Store) RemoveAdministrator(userID string) error {
	return s.db.Where("user_id = ?", userID).Delete(&domain.Administrator{}).Error
}

// IsAdministrator 查询用户是否在管理员集合内。
func (s *Store) IsAdministrator(userID string) (bool, error) {
	var count int64
	err := s.db.Model(&domain.Administrator{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

// GetSystemStatistics 汇总系统统计。
func (s *Store) GetSystemStatistics() (*domain.SystemStatistics, error) {
	stats := &domain.SystemStatistics{AddressesByDomain: make(map[string]int)}

	var users, addresses, emails int64
	if err := s.db.Model(&domain.User{}).Count(&users).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&domain.Address{}).Count(&addresses).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&domain.Email{}).Count(&emails).Error; err != nil {
		return nil, err
	}
	stats.TotalUsers = int(users)
	stats.TotalAddresses = int(addresses)
	stats.TotalEmails = int(emails)

	today, err := s.GetDailyCounter(domain.DateKey(time.Now()))
	if err != nil {
		return nil, err
	}
	stats.EmailsToday = today

	rows := []struct {
		Domain string
		Count  int
	}{}
	if err := s.db.Model(&domain.Address{}).
		Select("domain, count(*) as count").
		Group("domain").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.AddressesByDomain[r.Domain] = r.Count
	}
	return stats, nil
}

// ========== RateLimit Repository ==========

// IncrementRateLimit 进程内限流计数。
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	s.rlMu.Lock()
	defer s.rlMu.Unlock()

	now := time.Now()
	entry, ok := s.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		s.rateLimits[key] = entry
	}
	entry.count++
	return entry.count, nil
}

// GetRateLimit 读取当前窗口的限流计数。
func (s *Store) GetRateLimit(key string) (int64, error) {
	s.rlMu.Lock()
	defer s.rlMu.Unlock()

	entry, ok := s.rateLimits[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return 0, nil
	}
	return entry.count, nil
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 数据库连通性检查。
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
