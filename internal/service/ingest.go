package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/monitoring"
	"dispomail/backend/internal/storage"
	"dispomail/backend/internal/websocket"
)

// ErrRecipientNotFound 收件地址未分配，投递被拒。
var ErrRecipientNotFound = errors.New("recipient address not found")

// Notifier 向用户推送实时事件。
type Notifier interface {
	NotifyUser(userID string, event websocket.Event)
}

// IngestService 处理邮件中继投递的入站消息。
type IngestService struct {
	store    storage.Store
	notifier Notifier
	logger   *zap.Logger
}

// NewIngestService 创建入站服务。notifier 可为 nil（不做实时推送）。
func NewIngestService(store storage.Store, notifier Notifier, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Ingest 接收一封入站消息并入库。
//
// 流程：归一化收件地址 -> 解析归属用户 -> 持久化 -> 日计数 -> 实时推送。
// 收件地址未分配时返回 ErrRecipientNotFound，邮件被丢弃。
// 日计数与推送是尽力而为：失败只记日志，不影响已入库的邮件。
// 附件按契约接受但不持久化。
func (s *IngestService) Ingest(msg *domain.InboundMessage) (*domain.Email, error) {
	recipient := domain.NormalizeAddress(msg.To)

	address, err := s.store.GetAddressByEmail(recipient)
	if err != nil {
		if errors.Is(err, storage.ErrAddressNotFound) {
			monitoring.RecordRecipientNotFound()
			s.logger.Info("拒收：收件地址未分配",
				zap.String("recipient", recipient),
				zap.String("from", msg.From))
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	email := &domain.Email{
		ID:             uuid.New().String(),
		UserID:         address.UserID,
		RecipientEmail: recipient,
		From:           msg.From,
		Subject:        msg.Subject,
		Text:           msg.Text,
		HTML:           msg.HTML,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SaveEmail(email); err != nil {
		return nil, err
	}

	if len(msg.Attachments) > 0 {
		s.logger.Debug("附件已丢弃",
			zap.String("email_id", email.ID),
			zap.Int("count", len(msg.Attachments)))
	}

	if err := s.store.IncrementDailyCounter(domain.DateKey(email.CreatedAt)); err != nil {
		s.logger.Warn("日计数更新失败", zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.NotifyUser(address.UserID,
			websocket.NewMailEvent(email.ID, recipient, email.From, email.Subject))
	}

	monitoring.RecordEmailIngested()
	s.logger.Info("邮件入库成功",
		zap.String("email_id", email.ID),
		zap.String("recipient", recipient),
		zap.String("user_id", address.UserID))
	return email, nil
}
