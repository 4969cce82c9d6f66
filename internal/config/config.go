// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinCookieSecretLength はクッキー署名鍵に要求する最小文字数です。
const MinCookieSecretLength = 12

// パスワード派生の反復回数の許容範囲
const (
	MinPasswordIterations = 1000
	MaxPasswordIterations = 1_000_000
)

var (
	// ErrSecretMissing は COOKIE_SECRET が未設定の場合に返されます。
	ErrSecretMissing = errors.New("COOKIE_SECRET is required")
	// ErrSecretTooShort は COOKIE_SECRET が短すぎる場合に返されます。
	ErrSecretTooShort = fmt.Errorf("COOKIE_SECRET must be at least %d characters", MinCookieSecretLength)
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// 認証設定
	// セッションクッキー署名用の秘密鍵
	CookieSecret string `env:"COOKIE_SECRET"`
	// セッションの有効期間
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`
	// PBKDF2 の反復回数
	PasswordIterations int `env:"PASSWORD_ITERATIONS" envDefault:"1000"`

	// サーバー設定
	// APIサーバーのポート番号
	Port string `env:"PORT" envDefault:"8080"`
	// Ginの実行モード (debug, release, test)
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	// CORS許可オリジン（カンマ区切り）
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:8080"`

	// 永続化設定
	// postgres:// または sqlite:
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite:file:kanban.db"`
	// 空の場合ログイン試行制限は無効
	RedisURL string `env:"REDIS_URL"`

	// ログイン試行制限
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
	LoginLock        time.Duration `env:"LOGIN_LOCK" envDefault:"10m"`
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
// 署名鍵の不備はどのモードでも起動を止めます。
func (c *Config) Validate() error {
	if c.CookieSecret == "" {
		return ErrSecretMissing
	}
	if len(c.CookieSecret) < MinCookieSecretLength {
		return ErrSecretTooShort
	}
	if c.PasswordIterations < MinPasswordIterations || c.PasswordIterations > MaxPasswordIterations {
		return fmt.Errorf("PASSWORD_ITERATIONS must be between %d and %d", MinPasswordIterations, MaxPasswordIterations)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	return nil
}

// Production は本番相当の環境で動作しているかを返します。
func (c *Config) Production() bool {
	return c.GinMode == "release"
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
