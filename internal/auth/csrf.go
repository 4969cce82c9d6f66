package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/fm-kanban/internal/auth/session"
)

const (
	CSRFCookieName = "csrf"
	sessionKeyCSRF = "csrf_token"

	csrfHeader    = "X-CSRF-Token"
	csrfFormField = "csrf_token"

	// ContextCSRFKey はテンプレートへ渡す CSRF トークンのキーです。
	ContextCSRFKey = "auth.csrf"
)

// CSRFSessions は CSRF トークンを保持するクッキーセッションのミドルウェアを返します。
// 鍵はセッションクッキーとは別用途として署名鍵から派生させます。
func CSRFSessions(secret string, secure bool) (gin.HandlerFunc, error) {
	hashKey, err := session.DeriveKey(secret, "fm-kanban csrf hmac")
	if err != nil {
		return nil, err
	}
	blockKey, err := session.DeriveKey(secret, "fm-kanban csrf aes")
	if err != nil {
		return nil, err
	}

	store := cookie.NewStore(hashKey, blockKey)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(CSRFCookieName, store), nil
}

// VerifyCSRF は状態を変更するリクエストの CSRF トークンを検証するミドルウェアです。
// 安全なメソッドではトークンを用意してテンプレートに渡します。
func VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		expected, _ := sess.Get(sessionKeyCSRF).(string)

		if isSafeMethod(c.Request.Method) {
			if expected == "" {
				token, err := generateToken()
				if err != nil {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				sess.Set(sessionKeyCSRF, token)
				if err := sess.Save(); err != nil {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				expected = token
			}
			c.Set(ContextCSRFKey, expected)
			c.Next()
			return
		}

		received := c.GetHeader(csrfHeader)
		if received == "" {
			received = c.PostForm(csrfFormField)
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Set(ContextCSRFKey, expected)
		c.Next()
	}
}

// CSRFToken は現在のリクエストの CSRF トークンを返します。
func CSRFToken(c *gin.Context) string {
	return c.GetString(ContextCSRFKey)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
