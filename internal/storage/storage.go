package storage

import (
	"errors"
	"time"

	"dispomail/backend/internal/domain"
)

var (
	// ErrAddressNotFound 地址不存在
	ErrAddressNotFound = errors.New("address not found")
	// ErrAddressExists 地址字符串已被占用（全局唯一约束）
	ErrAddressExists = errors.New("address already exists")
	// ErrQuotaExceeded 套餐地址配额已满
	ErrQuotaExceeded = errors.New("address quota exceeded")
	// ErrEmailNotFound 邮件不存在
	ErrEmailNotFound = errors.New("email not found")
	// ErrDomainNotFound 域名不存在
	ErrDomainNotFound = errors.New("domain not found")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 注册邮箱已被占用
	ErrUserExists = errors.New("user already exists")
)

// AddressRepository 定义一次性地址的数据存取操作。
type AddressRepository interface {
	// CreateAddress 持久化一个新地址。配额检查与写入在同一个临界区 /
	// 事务中完成：maxAddresses >= 0 时，若用户当前地址数已达上限则返回
	// ErrQuotaExceeded；地址字符串冲突返回 ErrAddressExists。
	// maxAddresses < 0 表示不限配额。
	CreateAddress(address *domain.Address, maxAddresses int) error
	GetAddress(id string) (*domain.Address, error)
	GetAddressByEmail(address string) (*domain.Address, error)
	ListAddressesByUserID(userID string) []domain.Address
	CountAddressesByUserID(userID string) (int, error)
	DeleteAddress(id string) error
}

// EmailRepository 定义邮件数据存取操作。
type EmailRepository interface {
	SaveEmail(email *domain.Email) error
	GetEmail(id string) (*domain.Email, error)
	ListEmailsByUserID(userID string) ([]domain.Email, error)
	MarkEmailRead(id string) error
	DeleteEmail(id string) error
	// DeleteEmailsBefore 批量删除创建时间早于 cutoff 的邮件，返回删除数量。
	// 按记录幂等：重复调用不会二次删除。
	DeleteEmailsBefore(cutoff time.Time) (int, error)
}

// DomainRepository 定义邮件域名数据存取操作。
type DomainRepository interface {
	// UpsertDomain 以域名为键写入；已存在时覆盖（重新激活并刷新时间戳）。
	UpsertDomain(d *domain.MailDomain) error
	GetDomain(name string) (*domain.MailDomain, error)
	ListDomains() ([]*domain.MailDomain, error)
	ListActiveDomains() ([]*domain.MailDomain, error)
	DeleteDomain(name string) error
}

// CounterRepository 定义日计数器操作。
type CounterRepository interface {
	// IncrementDailyCounter 对指定日期键做可交换的原子自增（不存在则创建）。
	// 并发自增不丢失更新。
	IncrementDailyCounter(date string) error
	GetDailyCounter(date string) (int64, error)
	ListDailyCounters(limit int) ([]domain.DailyCounter, error)
}

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByID(id string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	UpdateUser(user *domain.User) error
	UpdateLastLogin(userID string) error
}

// AdminRepository 定义管理员成员资格与统计操作。
type AdminRepository interface {
	AddAdministrator(admin *domain.Administrator) error
	RemoveAdministrator(userID string) error
	IsAdministrator(userID string) (bool, error)
	GetSystemStatistics() (*domain.SystemStatistics, error)
}

// RateLimitRepository 定义限流计数操作。
type RateLimitRepository interface {
	IncrementRateLimit(key string, window time.Duration) (int64, error)
	GetRateLimit(key string) (int64, error)
}

// Store 定义完整的存储接口。
type Store interface {
	AddressRepository
	EmailRepository
	DomainRepository
	CounterRepository
	UserRepository
	AdminRepository
	RateLimitRepository

	Close() error
	Health() error
}
