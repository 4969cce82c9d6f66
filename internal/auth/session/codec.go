// Package session は署名・暗号化されたセッションクッキーの組み立てと検証を提供します。
//
// クッキーが運ぶのはアカウントIDただ一つです。サーバー側にセッションの記録は持ちません。
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName はセッションクッキーの名前です。
	CookieName = "auth"
	// DefaultMaxAge はセッションの既定の有効期間です（30日）。
	DefaultMaxAge = 30 * 24 * time.Hour
	// MinSecretLength は署名鍵に要求する最小文字数です。
	MinSecretLength = 12
)

var (
	// ErrSecretTooShort は署名鍵が短すぎる場合に返されます。
	ErrSecretTooShort = fmt.Errorf("session: secret must be at least %d characters", MinSecretLength)
	// ErrNoSession はクッキーが存在しない、または検証できない場合に返されます。
	ErrNoSession = errors.New("session: no valid session")
)

// Options はクッキーの属性です。起動時に一度だけ決まります。
type Options struct {
	MaxAge time.Duration
	Secure bool
}

// Codec はアカウントIDとクッキー値を相互に変換します。
// 生成後は読み取り専用なので、複数のリクエストから同時に使えます。
type Codec struct {
	sc     *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewCodec は署名鍵からクッキーの署名鍵と暗号鍵を派生させ、Codec を作成します。
func NewCodec(secret string, opts Options) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}

	hashKey, err := DeriveKey(secret, "fm-kanban session hmac")
	if err != nil {
		return nil, err
	}
	blockKey, err := DeriveKey(secret, "fm-kanban session aes")
	if err != nil {
		return nil, err
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(opts.MaxAge.Seconds()))

	return &Codec{
		sc:     sc,
		maxAge: opts.MaxAge,
		secure: opts.Secure,
	}, nil
}

// DeriveKey は署名鍵から用途ごとに独立した 32 バイトの鍵を HKDF で派生させます。
func DeriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("session: failed to derive key: %w", err)
	}
	return key, nil
}

// Serialize はアカウントIDを載せたクッキーを返します。
// 空のIDを渡すと、クライアントにセッションを破棄させる期限切れのクッキーになります。
func (c *Codec) Serialize(accountID string) (*http.Cookie, error) {
	if accountID == "" {
		return c.expired(), nil
	}

	value, err := c.sc.Encode(CookieName, accountID)
	if err != nil {
		return nil, fmt.Errorf("session: failed to encode cookie: %w", err)
	}

	cookie := c.base()
	cookie.Value = value
	cookie.MaxAge = int(c.maxAge.Seconds())
	cookie.Expires = time.Now().Add(c.maxAge).UTC()
	return cookie, nil
}

// Decode はクッキー値を検証し、アカウントIDを返します。
// 署名不一致・期限切れ・文字列以外・空文字はすべて ErrNoSession です。
func (c *Codec) Decode(value string) (string, error) {
	if value == "" {
		return "", ErrNoSession
	}
	var accountID string
	if err := c.sc.Decode(CookieName, value, &accountID); err != nil {
		return "", ErrNoSession
	}
	if accountID == "" {
		return "", ErrNoSession
	}
	return accountID, nil
}

// Parse は Cookie ヘッダー全体からアカウントIDを取り出します。
// 検証できない場合は空文字を返します。
func (c *Codec) Parse(header string) string {
	if header == "" {
		return ""
	}
	r := &http.Request{Header: http.Header{"Cookie": {header}}}
	id, _ := c.Read(r)
	return id
}

// Read はリクエストからセッションクッキーを読み取ります。
// present はクッキーが空でない値で送られてきたかどうかを示し、検証結果とは独立です。
func (c *Codec) Read(r *http.Request) (accountID string, present bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	id, err := c.Decode(cookie.Value)
	if err != nil {
		return "", true
	}
	return id, true
}

// Expired はセッションを即座に失効させるクッキーを返します。
func (c *Codec) Expired() *http.Cookie {
	return c.expired()
}

func (c *Codec) expired() *http.Cookie {
	cookie := c.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()
	return cookie
}

func (c *Codec) base() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
