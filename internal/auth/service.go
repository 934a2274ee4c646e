package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dispomail/backend/internal/auth/jwt"
	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

var (
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserDisabled 账号已被停用
	ErrUserDisabled = errors.New("user account is disabled")
	// ErrForbidden 无权访问目标资源
	ErrForbidden = errors.New("forbidden")
)

// Service 负责用户注册、登录与访问授权。
type Service struct {
	store     storage.Store
	tokens    *jwt.Manager
	validator *domain.AddressValidator
	logger    *zap.Logger
}

// NewService 创建认证服务。
func NewService(store storage.Store, tokens *jwt.Manager, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		tokens:    tokens,
		validator: domain.NewAddressValidator(),
		logger:    logger,
	}
}

// Register 注册新用户，默认 free 套餐。
func (s *Service) Register(email, password string) (*domain.User, error) {
	email = domain.NormalizeAddress(email)
	if err := s.validator.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Plan:         domain.PlanFree,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.Info("用户注册成功",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))
	return user, nil
}

// Login 校验凭证并签发令牌对。
func (s *Service) Login(email, password string) (*domain.User, *jwt.TokenPair, error) {
	email = domain.NormalizeAddress(email)

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// 统一返回凭证错误，不暴露账号是否存在
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrUserDisabled
	}

	pair, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.UpdateLastLogin(user.ID); err != nil {
		s.logger.Warn("更新最后登录时间失败", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("用户登录成功", zap.String("user_id", user.ID))
	return user, pair, nil
}

// Refresh 用刷新令牌换取新的令牌对。
func (s *Service) Refresh(refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, err
	}

	// 重新读取用户，令牌签发后被停用的账号不能续期
	user, err := s.store.GetUserByID(claims.UserID)
	if err != nil {
		return nil, jwt.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	return s.tokens.GenerateTokenPair(user)
}

// GetUserByID 按 ID 查询用户。
func (s *Service) GetUserByID(id string) (*domain.User, error) {
	return s.store.GetUserByID(id)
}

// IsAdministrator 查询用户是否在管理员名单中。
func (s *Service) IsAdministrator(userID string) (bool, error) {
	return s.store.IsAdministrator(userID)
}

// AuthorizeOwnership 校验资源归属：资源属主与请求用户不一致时返回 ErrForbidden。
func (s *Service) AuthorizeOwnership(resourceOwnerID, requestUserID string) error {
	if resourceOwnerID != requestUserID {
		return ErrForbidden
	}
	return nil
}
