package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/fm-kanban/internal/accounts"
	"github.com/yourusername/fm-kanban/internal/auth"
	"github.com/yourusername/fm-kanban/internal/auth/session"
	"github.com/yourusername/fm-kanban/internal/web/templates"
)

type stubReader struct {
	account *accounts.Account
	err     error
}

func (s *stubReader) Get(ctx context.Context, id string) (*accounts.Account, error) {
	return s.account, s.err
}

func newPagesRouter(t *testing.T, reader AccountReader) (*gin.Engine, *http.Cookie) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	codec, err := session.NewCodec("pages-test-secret-123", session.Options{})
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}
	gate := auth.NewGate(codec, nil)
	pages := NewPages(gate, reader, nil)

	router := gin.New()
	router.SetHTMLTemplate(templates.Must())
	router.GET("/", pages.Index)
	router.GET("/home", gate.RequireLogin(), pages.Home)

	cookie, err := codec.Serialize("acc-1")
	if err != nil {
		t.Fatalf("Serialize returned error: %v", err)
	}
	return router, cookie
}

func TestHomeRendersEmail(t *testing.T) {
	router, cookie := newPagesRouter(t, &stubReader{account: &accounts.Account{ID: "acc-1", Email: "a@example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Signed in as a@example.com") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHomeStoreFailure(t *testing.T) {
	router, cookie := newPagesRouter(t, &stubReader{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatal("internal error leaked to the page")
	}
}

func TestIndexRedirectsWhenLoggedIn(t *testing.T) {
	router, cookie := newPagesRouter(t, &stubReader{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != auth.HomePath {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := templates.Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	for _, name := range []string{"index.html", "login.html", "signup.html", "home.html", "error.html"} {
		if tmpl.Lookup(name) == nil {
			t.Fatalf("template %s not found", name)
		}
	}
}
