package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/fm-kanban/internal/auth/session"
)

// ContextAccountKey は、ハンドラー間でログイン済みアカウントIDを共有するためのキーです。
const ContextAccountKey = "auth.account"

// LoginPath は未ログイン時のリダイレクト先です。
const LoginPath = "/login"

// Result は1リクエスト分のセッション判定結果です。
type Result struct {
	AccountID string
	// Malformed はクッキーが送られてきたが検証できなかったことを示します。
	Malformed bool
}

// Authenticated はアカウントIDが得られたかを返します。
func (r Result) Authenticated() bool {
	return r.AccountID != ""
}

// Gate は保護されたルートの前段でセッションクッキーを検証します。
// 状態は持たず、リクエストごとに判定します。
type Gate struct {
	codec  *session.Codec
	logger *slog.Logger
}

// NewGate は Gate を作成します。
func NewGate(codec *session.Codec, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{codec: codec, logger: logger}
}

// Resolve はリクエストのクッキーを判定します。
func (g *Gate) Resolve(r *http.Request) Result {
	id, present := g.codec.Read(r)
	if id != "" {
		return Result{AccountID: id}
	}
	return Result{Malformed: present}
}

// RequireSession はアカウントIDを返します。未ログインの場合はログイン画面へリダイレクトし、
// 検証できないクッキーは同じレスポンスで消去して ok=false を返します。
func (g *Gate) RequireSession(c *gin.Context) (accountID string, ok bool) {
	res := g.Resolve(c.Request)
	if res.Authenticated() {
		c.Set(ContextAccountKey, res.AccountID)
		return res.AccountID, true
	}
	if res.Malformed {
		g.clearMalformed(c)
	}
	c.Redirect(http.StatusFound, LoginPath)
	c.Abort()
	return "", false
}

// OptionalSession は未ログインでもリダイレクトせず、空文字と false を返します。
func (g *Gate) OptionalSession(c *gin.Context) (accountID string, ok bool) {
	res := g.Resolve(c.Request)
	if res.Authenticated() {
		c.Set(ContextAccountKey, res.AccountID)
		return res.AccountID, true
	}
	if res.Malformed {
		g.clearMalformed(c)
	}
	return "", false
}

// EstablishSession はアカウントIDを載せたクッキーをレスポンスに付けます。
// 資格情報の検証は呼び出し側で済ませておく必要があります。
func (g *Gate) EstablishSession(c *gin.Context, accountID string) error {
	cookie, err := g.codec.Serialize(accountID)
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, cookie)
	return nil
}

// ClearSession はクッキーを即座に失効させます。
func (g *Gate) ClearSession(c *gin.Context) {
	http.SetCookie(c.Writer, g.codec.Expired())
}

func (g *Gate) clearMalformed(c *gin.Context) {
	g.logger.Warn("clearing unverifiable session cookie",
		"path", c.Request.URL.Path,
		"ip", c.ClientIP(),
	)
	g.ClearSession(c)
}

// RequireLogin はセッションを検証するミドルウェアを返します。
func (g *Gate) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.RequireSession(c); !ok {
			return
		}
		c.Next()
	}
}

// RedirectIfLoggedIn はログイン済みなら to へリダイレクトするミドルウェアを返します。
// ログイン・サインアップ画面に使います。
func (g *Gate) RedirectIfLoggedIn(to string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.OptionalSession(c); ok {
			c.Redirect(http.StatusFound, to)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AccountID はミドルウェアが保存したアカウントIDを返します。
func AccountID(c *gin.Context) string {
	return c.GetString(ContextAccountKey)
}
