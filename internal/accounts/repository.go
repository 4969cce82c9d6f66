// Package accounts はアカウントと資格情報の永続化、サインアップ・ログインの処理を提供します。
package accounts

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Repository はアカウントの保存先です。
type Repository interface {
	// GetByEmail は資格情報を含めてアカウントを返します。
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	// Create はアカウントと資格情報を同一トランザクションで作成します。
	Create(ctx context.Context, account *Account) error
	// ReplaceCredential は資格情報を丸ごと置き換えます。
	ReplaceCredential(ctx context.Context, accountID string, cred Credential) error
	Delete(ctx context.Context, id string) error
}
