package memory

import (
	"sort"
	"sync"
	"time"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

// Store 使用内存保存全部数据，主要用于开发验证与测试。
type Store struct {
	mu         sync.RWMutex
	addresses  map[string]*domain.Address // addressID -> address
	byEmail    map[string]string          // 小写地址字符串 -> addressID
	emails     map[string]*domain.Email   // emailID -> email
	domains    map[string]*domain.MailDomain
	counters   map[string]int64 // 日期键 -> 接收计数
	users      map[string]*domain.User
	byUserMail map[string]string // 注册邮箱 -> userID
	admins     map[string]*domain.Administrator

	rateLimits map[string]*rateLimitEntry
}

// rateLimitEntry 限流计数条目
type rateLimitEntry struct {
	count     int64
	expiresAt time.Time
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		addresses:  make(map[string]*domain.Address),
		byEmail:    make(map[string]string),
		emails:     make(map[string]*domain.Email),
		domains:    make(map[string]*domain.MailDomain),
		counters:   make(map[string]int64),
		users:      make(map[string]*domain.User),
		byUserMail: make(map[string]string),
		admins:     make(map[string]*domain.Administrator),
		rateLimits: make(map[string]*rateLimitEntry),
	}
}

// ========== Address Repository ==========

// CreateAddress 在同一把锁内完成配额检查、唯一性检查与写入，
// 并发分配不可能同时越过配额。
func (s *Store) CreateAddress(address *domain.Address, maxAddresses int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[address.Address]; taken {
		return storage.ErrAddressExists
	}

	if maxAddresses >= 0 {
		owned := 0
		for _, a := range s.addresses {
			if a.UserID == address.UserID {
				owned++
			}
		}
		if owned >= maxAddresses {
			return storage.ErrQuotaExceeded
		}
	}

	s.addresses[address.ID] = address
	s.byEmail[address.Address] = address.ID
	return nil
}

// GetAddress 根据 ID 获取地址。
func (s *Store) GetAddress(id string) (*domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, ok := s.addresses[id]
	if !ok {
		return nil, storage.ErrAddressNotFound
	}
	return address, nil
}

// GetAddressByEmail 根据小写规范地址字符串获取地址。
func (s *Store) GetAddressByEmail(address string) (*domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[address]
	if !ok {
		return nil, storage.ErrAddressNotFound
	}
	return s.addresses[id], nil
}

// ListAddressesByUserID 返回指定用户的全部地址。
func (s *Store) ListAddressesByUserID(userID string) []domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Address, 0)
	for _, a := range s.addresses {
		if a.UserID == userID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// CountAddressesByUserID 统计指定用户当前持有的地址数量。
func (s *Store) CountAddressesByUserID(userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.addresses {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

// DeleteAddress 删除指定地址。已有邮件保持原归属不受影响。
func (s *Store) DeleteAddress(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address, ok := s.addresses[id]
	if !ok {
		return storage.ErrAddressNotFound
	}
	delete(s.byEmail, address.Address)
	delete(s.addresses, id)
	return nil
}

// ========== Email Repository ==========

// SaveEmail 保存邮件。
func (s *Store) SaveEmail(email *domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emails[email.ID] = email
	return nil
}

// GetEmail 根据 ID 获取邮件。
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.emails[id]
	if !ok {
		return nil, storage.ErrEmailNotFound
	}
	return email, nil
}

// ListEmailsByUserID 返回指定用户的全部邮件，按接收时间倒序。
func (s *Store) ListEmailsByUserID(userID string) ([]domain.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Email, 0)
	for _, e := range s.emails {
		if e.UserID == userID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// MarkEmailRead 标记邮件为已读。
func (s *Store) MarkEmailRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.emails[id]
	if !ok {
		return storage.ErrEmailNotFound
	}
	email.Read = true
	return nil
}

// DeleteEmail 删除单封邮件。
func (s *Store) DeleteEmail(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[id]; !ok {
		return storage.ErrEmailNotFound
	}
	delete(s.emails, id)
	return nil
}

// DeleteEmailsBefore 删除创建时间早于 cutoff 的全部邮件，返回删除数量。
func (s *Store) DeleteEmailsBefore(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, e := range s.emails {
		if e.CreatedAt.Before(cutoff) {
			delete(s.emails, id)
			deleted++
		}
	}
	return deleted, nil
}

// ========== Domain Repository ==========

// UpsertDomain 以域名为键写入，已存在时整体覆盖。
func (s *Store) UpsertDomain(d *domain.MailDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.domains[d.Name] = d
	return nil
}

// GetDomain 根据域名获取记录。
func (s *Store) GetDomain(name string) (*domain.MailDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.domains[name]
	if !ok {
		return nil, storage.ErrDomainNotFound
	}
	return d, nil
}

// ListDomains 返回全部域名。
func (s *Store) ListDomains() ([]*domain.MailDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MailDomain, 0, len(s.domains))
	for _, d := range s.domains {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ListActiveDomains 返回全部已激活域名。
func (s *Store) ListActiveDomains() ([]*domain.MailDomain, error) {
	all, err := s.ListDomains()
	if err != nil {
		return nil, err
	}
	active := make([]*domain.MailDomain, 0, len(all))
	for _, d := range all {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return active, nil
}

// DeleteDomain 删除域名记录。
func (s *Store) DeleteDomain(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[name]; !ok {
		return storage.ErrDomainNotFound
	}
	delete(s.domains, name)
	return nil
}

// ========== Counter Repository ==========

// IncrementDailyCounter 自增日计数；持锁期间完成，天然可交换。
func (s *Store) IncrementDailyCounter(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[date]++
	return nil
}

// GetDailyCounter 获取指定日期的计数，不存在返回 0。
func (s *Store) GetDailyCounter(date string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counters[date], nil
}

// ListDailyCounters 返回最近 limit 天的计数，按日期倒序。
func (s *Store) ListDailyCounters(limit int) ([]domain.DailyCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DailyCounter, 0, len(s.counters))
	for date, count := range s.counters {
		result = append(result, domain.DailyCounter{Date: date, ReceivedCount: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ========== User Repository ==========

// CreateUser 创建用户，注册邮箱唯一。
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUserMail[user.Email]; exists {
		return storage.ErrUserExists
	}
	s.users[user.ID] = user
	s.byUserMail[user.Email] = user.ID
	return nil
}

// GetUserByID 根据 ID 获取用户。
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

// GetUserByEmail 根据注册邮箱获取用户。
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUserMail[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return s.users[id], nil
}

// UpdateUser 更新用户信息。
func (s *Store) UpdateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = user
	return nil
}

// UpdateLastLogin 更新最后登录时间。
func (s *Store) UpdateLastLogin(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	now := time.Now().UTC()
	user.LastLoginAt = &now
	return nil
}

// ========== Admin Repository ==========

// AddAdministrator 写入管理员成员资格。
func (s *Store) AddAdministrator(admin *domain.Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.admins[admin.UserID] = admin
	return nil
}

// RemoveAdministrator 移除管理员成员资格。
func (s *Store) RemoveAdministrator(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.admins, userID)
	return nil
}

// IsAdministrator 查询用户是否在管理员集合内。
func (s *Store) IsAdministrator(userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.admins[userID]
	return ok, nil
}

// GetSystemStatistics 汇总系统统计。
func (s *Store) GetSystemStatistics() (*domain.SystemStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDomain := make(map[string]int)
	for _, a := range s.addresses {
		byDomain[a.Domain]++
	}

	stats := &domain.SystemStatistics{
		TotalUsers:        len(s.users),
		TotalAddresses:    len(s.addresses),
		TotalEmails:       len(s.emails),
		EmailsToday:       s.counters[domain.DateKey(time.Now())],
		AddressesByDomain: byDomain,
	}
	return stats, nil
}

// ========== RateLimit Repository ==========

// IncrementRateLimit 自增限流计数，窗口到期后重新计数。
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.rateLimits[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return 0, nil
	}
	return entry.count, nil
}

// Close 关闭存储（内存实现为空操作）。
func (s *Store) Close() error { return nil }

// Health 健康检查（内存实现恒为健康）。
func (s *Store) Health() error { return nil }
