// Package web は認証以外の画面（トップページ・ホーム）のハンドラーを提供します。
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/fm-kanban/internal/accounts"
	"github.com/yourusername/fm-kanban/internal/auth"
)

// AccountReader はホーム画面が必要とするアカウント参照です。
type AccountReader interface {
	Get(ctx context.Context, id string) (*accounts.Account, error)
}

// Pages は画面ハンドラーをまとめます。
type Pages struct {
	gate     *auth.Gate
	accounts AccountReader
	logger   *slog.Logger
}

func NewPages(gate *auth.Gate, reader AccountReader, logger *slog.Logger) *Pages {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{gate: gate, accounts: reader, logger: logger}
}

// Index は GET / のハンドラーです。ログイン済みならホームへ送ります。
func (p *Pages) Index(c *gin.Context) {
	if _, ok := p.gate.OptionalSession(c); ok {
		c.Redirect(http.StatusFound, auth.HomePath)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Welcome"})
}

// Home は GET /home のハンドラーです。RequireLogin の後ろに置きます。
func (p *Pages) Home(c *gin.Context) {
	accountID := auth.AccountID(c)
	account, err := p.accounts.Get(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			// 署名は正しいが削除済みのアカウント
			p.gate.ClearSession(c)
			c.Redirect(http.StatusFound, auth.LoginPath)
			return
		}
		p.logger.Error("load account failed", "account_id", accountID, "error", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title":   "Error",
			"Message": "Something went wrong. Please try again.",
		})
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Title":     "Home",
		"Email":     account.Email,
		"CSRFToken": auth.CSRFToken(c),
	})
}

// Health はヘルスチェックエンドポイントのハンドラーです。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "fm-kanban",
		"version": "0.1.0",
	})
}
