// Package auth は認証・認可機能を提供します。
//
// セッションクッキーの検証（Gate）、CSRF 検証、ログイン試行制限、
// ログイン・サインアップ・ログアウトのハンドラーを含みます。
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/fm-kanban/internal/accounts"
)

// AccountService は認証ハンドラーが必要とするアカウント操作です。
type AccountService interface {
	Exists(ctx context.Context, email string) (bool, error)
	Signup(ctx context.Context, email, password string) (*accounts.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// 画面遷移先
const (
	HomePath  = "/home"
	IndexPath = "/"
)

const invalidCredentialsMessage = "Invalid email or password"

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	gate     *Gate
	accounts AccountService
	limiter  Limiter
	logger   *slog.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(gate *Gate, svc AccountService, limiter Limiter, logger *slog.Logger) *Manager {
	registerValidators()
	if limiter == nil {
		limiter = NopLimiter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		gate:     gate,
		accounts: svc,
		limiter:  limiter,
		logger:   logger,
	}
}

// Gate は Manager が使う Gate を返します。
func (m *Manager) Gate() *Gate {
	return m.gate
}

// LoginPage は GET /login のハンドラーです。
func (m *Manager) LoginPage(c *gin.Context) {
	m.renderLogin(c, http.StatusOK, "", FieldErrors{})
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		m.renderLogin(c, http.StatusBadRequest, form.Email, fieldErrorsFrom(err))
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()

	retryAfter, err := m.limiter.Check(ctx, ip)
	if err != nil {
		// 制限の確認に失敗してもログイン自体は止めない
		m.logger.Error("login limiter check failed", "error", err)
	}
	if retryAfter > 0 {
		// Retry-After は秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
		errs := FieldErrors{}
		errs.add("form", "Too many attempts. Please try again later.")
		m.renderLogin(c, http.StatusTooManyRequests, form.Email, errs)
		return
	}

	accountID, err := m.accounts.Login(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			if _, limErr := m.limiter.Fail(ctx, ip); limErr != nil {
				m.logger.Error("login limiter record failed", "error", limErr)
			}
			m.logger.Info("login failed", "ip", ip)
			errs := FieldErrors{}
			errs.add("email", invalidCredentialsMessage)
			m.renderLogin(c, http.StatusBadRequest, form.Email, errs)
			return
		}
		m.serverError(c, "login", err)
		return
	}

	if err := m.limiter.Reset(ctx, ip); err != nil {
		m.logger.Error("login limiter reset failed", "error", err)
	}

	if err := m.gate.EstablishSession(c, accountID); err != nil {
		m.serverError(c, "establish session", err)
		return
	}
	m.logger.Info("login succeeded", "account_id", accountID)
	c.Redirect(http.StatusSeeOther, HomePath)
}

// SignupPage は GET /signup のハンドラーです。
func (m *Manager) SignupPage(c *gin.Context) {
	m.renderSignup(c, http.StatusOK, "", FieldErrors{})
}

// Signup は POST /signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		m.renderSignup(c, http.StatusBadRequest, form.Email, fieldErrorsFrom(err))
		return
	}

	ctx := c.Request.Context()

	// ハッシュ化の前に重複を確認する
	exists, err := m.accounts.Exists(ctx, form.Email)
	if err != nil {
		m.serverError(c, "account lookup", err)
		return
	}
	if exists {
		m.renderEmailTaken(c, form.Email)
		return
	}

	account, err := m.accounts.Signup(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			m.renderEmailTaken(c, form.Email)
			return
		}
		m.serverError(c, "signup", err)
		return
	}

	if err := m.gate.EstablishSession(c, account.ID); err != nil {
		m.serverError(c, "establish session", err)
		return
	}
	m.logger.Info("account created", "account_id", account.ID)
	c.Redirect(http.StatusSeeOther, IndexPath)
}

// Logout は POST /logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	m.gate.ClearSession(c)
	c.Redirect(http.StatusSeeOther, LoginPath)
}

func (m *Manager) renderEmailTaken(c *gin.Context, email string) {
	errs := FieldErrors{}
	errs.add("email", "An account with this email already exists")
	m.renderSignup(c, http.StatusBadRequest, email, errs)
}

func (m *Manager) renderLogin(c *gin.Context, status int, email string, errs FieldErrors) {
	c.HTML(status, "login.html", gin.H{
		"Title":     "Login",
		"CSRFToken": CSRFToken(c),
		"Email":     email,
		"Errors":    errs,
	})
}

func (m *Manager) renderSignup(c *gin.Context, status int, email string, errs FieldErrors) {
	c.HTML(status, "signup.html", gin.H{
		"Title":     "Sign up",
		"CSRFToken": CSRFToken(c),
		"Email":     email,
		"Errors":    errs,
	})
}

func (m *Manager) serverError(c *gin.Context, op string, err error) {
	m.logger.Error(op+" failed", "error", err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Error",
		"Message": "Something went wrong. Please try again.",
	})
}
