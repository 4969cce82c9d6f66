package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/fm-kanban/internal/db"
)

// SQLRepository は accounts / passwords テーブルを使う Repository です。
type SQLRepository struct {
	db *db.DB
}

func NewSQLRepository(d *db.DB) *SQLRepository {
	return &SQLRepository{db: d}
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := r.db.Rebind(
		`SELECT a.id, a.email, p.hash, p.salt
		 FROM accounts a
		 LEFT JOIN passwords p ON p.account_id = a.id
		 WHERE a.email = ?`)

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := r.db.Rebind(
		`SELECT a.id, a.email, p.hash, p.salt
		 FROM accounts a
		 LEFT JOIN passwords p ON p.account_id = a.id
		 WHERE a.id = ?`)

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) scanOne(row *sql.Row) (*Account, error) {
	var (
		account    Account
		hash, salt sql.NullString
	)
	if err := row.Scan(&account.ID, &account.Email, &hash, &salt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	if hash.Valid && salt.Valid {
		account.Credential = &Credential{Hash: hash.String, Salt: salt.String}
	}
	return &account, nil
}

func (r *SQLRepository) Create(ctx context.Context, account *Account) error {
	if account == nil || account.ID == "" || account.Credential == nil {
		return fmt.Errorf("account id and credential are required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO accounts (id, email) VALUES (?, ?)`),
		account.ID, account.Email); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO passwords (account_id, hash, salt) VALUES (?, ?, ?)`),
		account.ID, account.Credential.Hash, account.Credential.Salt); err != nil {
		return fmt.Errorf("insert password: %w", err)
	}

	return tx.Commit()
}

func (r *SQLRepository) ReplaceCredential(ctx context.Context, accountID string, cred Credential) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM passwords WHERE account_id = ?`), accountID); err != nil {
		return fmt.Errorf("delete password: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO passwords (account_id, hash, salt) VALUES (?, ?, ?)`),
		accountID, cred.Hash, cred.Salt); err != nil {
		return fmt.Errorf("insert password: %w", err)
	}

	return tx.Commit()
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
