package main

import (
	"log"

	"collabboard/internal/board"
	"collabboard/internal/config"
	"collabboard/internal/database"
	"collabboard/internal/presence"
	"collabboard/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 데이터베이스 연결
	db, err := database.ConnectDB()
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		log.Fatalf("Database ping failed: %v", err)
	}
	log.Printf("Database connected successfully")

	// Presence mirror (선택적 - REDIS_ADDR 미설정 시 비활성화)
	var mirror board.PresenceMirror
	if cfg.Redis.Addr != "" {
		m, err := presence.NewMirror(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("Presence mirror disabled: %v", err)
		} else {
			defer m.Close()
			mirror = m
		}
	}

	// 서버 생성 및 설정
	srv := server.New(cfg, db, mirror)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
