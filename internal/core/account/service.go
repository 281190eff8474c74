package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const minPasswordLength = 8

// Service はアカウントと認証に関するユースケースをまとめます。
type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer
	clock  Clock
}

// UseCase はアカウントユースケースの公開インターフェースです。
type UseCase interface {
	Register(ctx context.Context, in RegisterInput) (*Account, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	RotatePassword(ctx context.Context, accountID, newPassword string) error
}

// NewService は Service を生成します。
func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, hasher: hasher, tokens: tokens, clock: clock}
}

// RegisterInput はアカウント登録時の入力です。
type RegisterInput struct {
	Email      string
	Password   string
	Role       *Role
	EmployeeID *string
}

// LoginInput はログイン時の入力です。
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult はログイン成功時の結果です。
type LoginResult struct {
	Token   string
	Account *Account
}

// Register は新しいアカウントを作成します。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if len(in.Password) < minPasswordLength {
		return nil, ErrInvalidPassword
	}

	role := RoleEmployee
	if in.Role != nil {
		if !isValidRole(*in.Role) {
			return nil, ErrInvalidRole
		}
		role = *in.Role
	}

	if err := s.ensureEmailNotExists(ctx, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	created, err := s.repo.Create(ctx, &Account{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		EmployeeID:   in.EmployeeID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Login は資格情報を検証しアクセストークンを発行します。
// アカウント不明とパスワード不一致はどちらも ErrInvalidCredentials です。
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(acct.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(acct.ID, string(acct.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Account: acct}, nil
}

// RotatePassword は既存アカウントのパスワードを差し替えます。
// 平文は保存されず、ハッシュのみが永続化されます。
func (s *Service) RotatePassword(ctx context.Context, accountID, newPassword string) error {
	if strings.TrimSpace(accountID) == "" {
		return ErrAccountNotFound
	}
	if len(newPassword) < minPasswordLength {
		return ErrInvalidPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePasswordHash(ctx, accountID, hash)
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return err
	}
	if acct != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func isValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleEmployee:
		return true
	default:
		return false
	}
}
