package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/fm-kanban/internal/auth/credentials"
)

// Service はサインアップとログインの手続きをまとめます。
type Service struct {
	repo   Repository
	hasher *credentials.Hasher
}

func NewService(repo Repository, hasher *credentials.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Exists はメールアドレスが登録済みかを返します。
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Signup は新しいソルトでパスワードをハッシュ化し、アカウントを作成します。
func (s *Service) Signup(ctx context.Context, email, password string) (*Account, error) {
	exists, err := s.Exists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	cred, err := s.newCredential(ctx, password)
	if err != nil {
		return nil, err
	}

	account := &Account{
		ID:         uuid.NewString(),
		Email:      email,
		Credential: cred,
	}
	// 確認後に他のリクエストが同じメールで作成した場合も ErrEmailTaken になる
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login はメールアドレスとパスワードを検証し、アカウントIDを返します。
// どちらが誤っていても ErrInvalidCredentials を返します。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if account == nil || account.Credential == nil {
		// 存在しないアカウントでも同じだけ計算して応答時間を揃える
		if salt, saltErr := credentials.NewSalt(); saltErr == nil {
			s.hasher.Hash(password, salt)
		}
		return "", ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, account.Credential.Salt, account.Credential.Hash) {
		return "", ErrInvalidCredentials
	}
	return account.ID, nil
}

// Get は ID でアカウントを返します。
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// ChangePassword はソルトごと資格情報を作り直します。
func (s *Service) ChangePassword(ctx context.Context, id, password string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	cred, err := s.newCredential(ctx, password)
	if err != nil {
		return err
	}
	return s.repo.ReplaceCredential(ctx, id, *cred)
}

// Delete はアカウントを削除します。資格情報も連鎖して消えます。
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) newCredential(ctx context.Context, password string) (*Credential, error) {
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	salt, err := credentials.NewSalt()
	if err != nil {
		return nil, err
	}
	return &Credential{
		Hash: s.hasher.Hash(password, salt),
		Salt: salt,
	}, nil
}
