package service

import (
	"time"

	"go.uber.org/zap"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

// DomainService 邮件域名注册表的管理操作。
type DomainService struct {
	store     storage.Store
	validator *domain.AddressValidator
	logger    *zap.Logger
}

// NewDomainService 创建域名服务。
func NewDomainService(store storage.Store, logger *zap.Logger) *DomainService {
	return &DomainService{
		store:     store,
		validator: domain.NewAddressValidator(),
		logger:    logger,
	}
}

// Add 注册（或重新激活）一个可分配域名。
// 重复添加按 upsert 处理：刷新时间戳、重新激活、更新操作者。
func (s *DomainService) Add(name, createdBy string) (*domain.MailDomain, error) {
	name = domain.NormalizeAddress(name)
	if err := s.validator.ValidateDomain(name); err != nil {
		return nil, err
	}

	d := &domain.MailDomain{
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}
	if err := s.store.UpsertDomain(d); err != nil {
		return nil, err
	}

	s.logger.Info("域名已注册",
		zap.String("domain", name),
		zap.String("created_by", createdBy))
	return d, nil
}

// List 返回全部域名（含停用）。
func (s *DomainService) List() ([]*domain.MailDomain, error) {
	return s.store.ListDomains()
}

// ListActive 返回激活域名，供地址分配与公开查询使用。
func (s *DomainService) ListActive() ([]*domain.MailDomain, error) {
	return s.store.ListActiveDomains()
}

// Deactivate 停用域名：保留记录，新地址不能再使用该域名。
// 已分配的地址不受影响，继续接收邮件。
func (s *DomainService) Deactivate(name string) error {
	name = domain.NormalizeAddress(name)
	d, err := s.store.GetDomain(name)
	if err != nil {
		return err
	}
	d.IsActive = false
	if err := s.store.UpsertDomain(d); err != nil {
		return err
	}

	s.logger.Info("域名已停用", zap.String("domain", name))
	return nil
}

// Remove 从注册表中彻底删除域名。
func (s *DomainService) Remove(name string) error {
	name = domain.NormalizeAddress(name)
	if err := s.store.DeleteDomain(name); err != nil {
		return err
	}
	s.logger.Info("域名已删除", zap.String("domain", name))
	return nil
}

// Bootstrap 启动时注册配置中声明的域名列表。
func (s *DomainService) Bootstrap(names []string) error {
	for _, name := range names {
		if _, err := s.Add(name, "bootstrap"); err != nil {
			return err
		}
	}
	return nil
}
