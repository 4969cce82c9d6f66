// Package credentials はパスワードのソルト生成とハッシュ化を提供します。
package credentials

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltBytes はソルトのバイト長です（hex で 64 文字）。
	SaltBytes = 32
	// KeyBytes は派生鍵のバイト長です（hex で 128 文字）。
	KeyBytes = 64
	// DefaultIterations は PBKDF2 の既定の反復回数です。
	DefaultIterations = 1000
)

// Hasher は PBKDF2-SHA512 でパスワードを派生させます。
// 反復回数は起動時に決まり、以後変更されません。
type Hasher struct {
	iterations int
}

// NewHasher は反復回数を指定して Hasher を作成します。
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Iterations は反復回数を返します。
func (h *Hasher) Iterations() int {
	return h.iterations
}

// NewSalt は暗号論的乱数から hex エンコードされたソルトを生成します。
func NewSalt() (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credentials: failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash は (password, salt) から決定的に hex エンコードされたハッシュを返します。
// 空のパスワードは上流のバリデーションで弾かれている前提です。
func (h *Hasher) Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, KeyBytes, sha512.New)
	return hex.EncodeToString(key)
}

// Verify は保存済みハッシュとパスワードを定数時間で比較します。
func (h *Hasher) Verify(password, salt, hash string) bool {
	candidate := h.Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
