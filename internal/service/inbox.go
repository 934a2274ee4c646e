package service

import (
	"errors"

	"go.uber.org/zap"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

// ErrNotOwner 请求用户不是邮件属主。
var ErrNotOwner = errors.New("email does not belong to user")

// InboxService 用户收件箱的读取与管理。
type InboxService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewInboxService 创建收件箱服务。
func NewInboxService(store storage.Store, logger *zap.Logger) *InboxService {
	return &InboxService{store: store, logger: logger}
}

// List 返回用户的全部邮件，按接收时间倒序。
func (s *InboxService) List(userID string) ([]domain.Email, error) {
	return s.store.ListEmailsByUserID(userID)
}

// Get 查询单封邮件并校验归属。
func (s *InboxService) Get(userID, emailID string) (*domain.Email, error) {
	email, err := s.store.GetEmail(emailID)
	if err != nil {
		return nil, err
	}
	if email.UserID != userID {
		return nil, ErrNotOwner
	}
	return email, nil
}

// MarkRead 将邮件标记为已读。
func (s *InboxService) MarkRead(userID, emailID string) error {
	if _, err := s.Get(userID, emailID); err != nil {
		return err
	}
	return s.store.MarkEmailRead(emailID)
}

// Delete 删除单封邮件。
func (s *InboxService) Delete(userID, emailID string) error {
	if _, err := s.Get(userID, emailID); err != nil {
		return err
	}
	if err := s.store.DeleteEmail(emailID); err != nil {
		return err
	}
	s.logger.Debug("邮件已删除",
		zap.String("email_id", emailID),
		zap.String("user_id", userID))
	return nil
}
