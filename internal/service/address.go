package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/monitoring"
	"dispomail/backend/internal/storage"
)

var (
	// ErrDomainNotAllowed 请求的域名不在激活域名列表中
	ErrDomainNotAllowed = errors.New("domain not allowed for allocation")
	// ErrNoActiveDomains 系统中没有任何激活域名可供分配
	ErrNoActiveDomains = errors.New("no active domains available")
)

// 随机本地部分：8 位 base36 字符
const (
	randomLocalPartLength = 8
	base36Alphabet        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// 随机生成撞到已占用地址时的重试次数。36^8 的空间下
// 连续碰撞基本只会发生在存储层异常时。
const allocateRetries = 3

// AddressService 一次性地址的分配、查询与回收。
type AddressService struct {
	store     storage.Store
	validator *domain.AddressValidator
	logger    *zap.Logger
}

// NewAddressService 创建地址服务。
func NewAddressService(store storage.Store, logger *zap.Logger) *AddressService {
	return &AddressService{
		store:     store,
		validator: domain.NewAddressValidator(),
		logger:    logger,
	}
}

// Allocate 为用户分配一个一次性地址。
//
// localPart 为空时随机生成 8 位 base36 字符串；指定时校验格式。
// domainName 为空时取第一个激活域名；指定时必须是激活域名。
// 配额由存储层在同一事务内强制：free 套餐同时最多 1 个地址。
func (s *AddressService) Allocate(user *domain.User, localPart, domainName string) (*domain.Address, error) {
	domainName, err := s.resolveDomain(domainName)
	if err != nil {
		return nil, err
	}

	maxAddresses := user.Plan.MaxAddresses()

	if localPart != "" {
		localPart = domain.NormalizeAddress(localPart)
		if err := s.validator.ValidateLocalPart(localPart); err != nil {
			return nil, err
		}
		address, err := s.create(user.ID, localPart, domainName, maxAddresses)
		if err != nil {
			return nil, err
		}
		monitoring.RecordAddressAllocated()
		return address, nil
	}

	// 随机生成：地址冲突时换一个本地部分重试
	for attempt := 0; attempt < allocateRetries; attempt++ {
		candidate, err := randomLocalPart()
		if err != nil {
			return nil, err
		}
		address, err := s.create(user.ID, candidate, domainName, maxAddresses)
		if errors.Is(err, storage.ErrAddressExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		monitoring.RecordAddressAllocated()
		return address, nil
	}
	return nil, fmt.Errorf("failed to allocate a unique address after %d attempts", allocateRetries)
}

func (s *AddressService) create(userID, localPart, domainName string, maxAddresses int) (*domain.Address, error) {
	address := &domain.Address{
		ID:        uuid.New().String(),
		UserID:    userID,
		Address:   fmt.Sprintf("%s@%s", localPart, domainName),
		LocalPart: localPart,
		Domain:    domainName,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAddress(address, maxAddresses); err != nil {
		return nil, err
	}

	s.logger.Info("地址分配成功",
		zap.String("user_id", userID),
		zap.String("address", address.Address))
	return address, nil
}

// resolveDomain 确定分配使用的域名：显式指定时要求激活，未指定时取首个激活域名。
func (s *AddressService) resolveDomain(domainName string) (string, error) {
	active, err := s.store.ListActiveDomains()
	if err != nil {
		return "", err
	}

	if domainName == "" {
		if len(active) == 0 {
			return "", ErrNoActiveDomains
		}
		return active[0].Name, nil
	}

	domainName = domain.NormalizeAddress(domainName)
	for _, d := range active {
		if d.Name == domainName {
			return domainName, nil
		}
	}
	return "", ErrDomainNotAllowed
}

// List 返回用户持有的全部地址。
func (s *AddressService) List(userID string) []domain.Address {
	return s.store.ListAddressesByUserID(userID)
}

// Get 按 ID 查询地址。
func (s *AddressService) Get(id string) (*domain.Address, error) {
	return s.store.GetAddress(id)
}

// Release 回收地址。地址删除后立即停止接收新邮件，
// 已收到的邮件保留至保留期结束。
func (s *AddressService) Release(id string) error {
	if err := s.store.DeleteAddress(id); err != nil {
		return err
	}
	monitoring.RecordAddressReleased()
	s.logger.Info("地址已回收", zap.String("address_id", id))
	return nil
}

// randomLocalPart 生成 8 位 base36 随机本地部分。
func randomLocalPart() (string, error) {
	max := big.NewInt(int64(len(base36Alphabet)))
	buf := make([]byte, randomLocalPartLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random local part: %w", err)
		}
		buf[i] = base36Alphabet[n.Int64()]
	}
	return string(buf), nil
}
