package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"collabboard/internal/auth"
	"collabboard/internal/board"
	"collabboard/internal/config"
	"collabboard/internal/handler"
	"collabboard/internal/store"
)

// Server Fiber 서버 래퍼
type Server struct {
	app               *fiber.App
	cfg               *config.Config
	db                *gorm.DB
	hub               *board.Hub
	authHandler       *handler.AuthHandler
	whiteboardHandler *handler.WhiteboardHandler
	wsHandler         *handler.WSHandler
	healthHandler     *handler.HealthHandler
	jwtManager        *auth.JWTManager
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB, mirror board.PresenceMirror) *Server {
	app := fiber.New(fiber.Config{
		AppName:         "Collabboard Realtime Server",
		ServerHeader:    "Fiber",
		StrictRouting:   true,
		CaseSensitive:   true,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		Prefork:         false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
	})

	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	boardStore := store.NewGormStore(db)
	hub := board.NewHub(boardStore, mirror, board.Config{
		HistoryDepth:       cfg.Board.HistoryDepth,
		PersistMaxAttempts: cfg.Board.PersistMaxAttempts,
		PersistBackoff:     cfg.Board.PersistBackoff,
	})

	return &Server{
		app:               app,
		cfg:               cfg,
		db:                db,
		hub:               hub,
		authHandler:       handler.NewAuthHandler(db, jwtManager, cfg.Auth.SecureCookie, cfg.Auth.RefreshTokenExpiry),
		whiteboardHandler: handler.NewWhiteboardHandler(db, hub),
		wsHandler:         handler.NewWSHandler(hub, cfg.WebSocket.SendQueueSize),
		healthHandler:     handler.NewHealthHandler(hub),
		jwtManager:        jwtManager,
	}
}

// Hub 보드 허브 반환 (테스트/종료 훅용)
func (s *Server) Hub() *board.Hub {
	return s.hub
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	s.app.Get("/health", s.healthHandler.Health)

	// 인증 엔드포인트 Rate Limit (Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// User 라우트 그룹
	userGroup := s.app.Group("/users")
	userGroup.Post("/signup", authLimiter, s.authHandler.Signup)
	userGroup.Post("/login", authLimiter, s.authHandler.Login)
	userGroup.Post("/token", authLimiter, s.authHandler.RefreshToken)
	userGroup.Get("/me", auth.AuthMiddleware(s.jwtManager), s.authHandler.GetMe)
	userGroup.Post("/logout", auth.AuthMiddleware(s.jwtManager), s.authHandler.Logout)

	// Whiteboard 라우트 그룹 (인증 필요)
	boardGroup := s.app.Group("/whiteboards", auth.AuthMiddleware(s.jwtManager))
	boardGroup.Post("/create", s.whiteboardHandler.Create)
	boardGroup.Post("/join", s.whiteboardHandler.Join)
	boardGroup.Get("/:username/all", s.whiteboardHandler.GetAllForUser)
	boardGroup.Get("/:id", s.whiteboardHandler.Get)
	boardGroup.Put("/:id", s.whiteboardHandler.Save)
	boardGroup.Post("/:id/share", s.whiteboardHandler.Share)
	boardGroup.Delete("/:id", s.whiteboardHandler.Delete)

	// WebSocket 업그레이드 체크 + JWT 검증
	s.app.Get("/ws/board", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// 토큰은 쿼리 파라미터 또는 쿠키에서
		accessToken := c.Query("token")
		if accessToken == "" {
			accessToken = c.Cookies("access_token")
		}
		if accessToken == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		claims, err := s.jwtManager.ValidateAccessToken(accessToken)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		c.Locals("username", claims.Username)
		c.Locals("userID", claims.UserID)

		return c.Next()
	}, websocket.New(s.wsHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")

		// 종료 전 남은 보드 상태 플러시
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		s.hub.FlushAll(ctx)
		cancel()

		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Collabboard server starting on %s", s.cfg.Server.Port)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws/board", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
