// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/fm-kanban/internal/accounts"
	"github.com/yourusername/fm-kanban/internal/auth"
	"github.com/yourusername/fm-kanban/internal/auth/credentials"
	"github.com/yourusername/fm-kanban/internal/auth/session"
	"github.com/yourusername/fm-kanban/internal/config"
	"github.com/yourusername/fm-kanban/internal/db"
	"github.com/yourusername/fm-kanban/internal/web"
	"github.com/yourusername/fm-kanban/internal/web/templates"
)

func main() {
	// 設定の読み込み（署名鍵が不正ならここで終了する）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Info("database ready", "dialect", database.Dialect)

	limiter, closeLimiter, err := setupLimiter(cfg)
	if err != nil {
		log.Fatalf("Failed to set up login limiter: %v", err)
	}
	defer closeLimiter()

	router, err := newRouter(cfg, database, limiter, logger)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	// サーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", server.Addr, "mode", cfg.GinMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// newRouter は依存関係を組み立ててルーターを返します。
func newRouter(cfg *config.Config, database *db.DB, limiter auth.Limiter, logger *slog.Logger) (*gin.Engine, error) {
	codec, err := session.NewCodec(cfg.CookieSecret, session.Options{
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.Production(),
	})
	if err != nil {
		return nil, err
	}

	tmpl, err := templates.Parse()
	if err != nil {
		return nil, err
	}

	csrfSessions, err := auth.CSRFSessions(cfg.CookieSecret, cfg.Production())
	if err != nil {
		return nil, err
	}

	hasher := credentials.NewHasher(cfg.PasswordIterations)
	accountService := accounts.NewService(accounts.NewSQLRepository(database), hasher)
	gate := auth.NewGate(codec, logger)
	authManager := auth.NewManager(gate, accountService, limiter, logger)
	pages := web.NewPages(gate, accountService, logger)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.SetHTMLTemplate(tmpl)

	// CORSミドルウェアの設定
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-CSRF-Token", // CSRF保護用ヘッダー
		}
		router.Use(cors.New(corsConfig))
	}

	setupRoutes(router, authManager, pages, csrfSessions)
	return router, nil
}

// setupRoutes は画面と認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, pages *web.Pages, csrfSessions gin.HandlerFunc) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", web.Health)

	gate := authManager.Gate()

	site := router.Group("/", csrfSessions, auth.VerifyCSRF())
	{
		site.GET("/", pages.Index)

		// ログイン済みならホームへ送る
		guest := site.Group("", gate.RedirectIfLoggedIn(auth.HomePath))
		{
			guest.GET("/login", authManager.LoginPage)
			guest.POST("/login", authManager.Login)
			guest.GET("/signup", authManager.SignupPage)
			guest.POST("/signup", authManager.Signup)
		}

		site.POST("/logout", authManager.Logout)

		// ボード・タスクの画面はここにぶら下げる
		protected := site.Group("", gate.RequireLogin())
		{
			protected.GET("/home", pages.Home)
		}
	}
}
