package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"quest-bot/internal/config"
	"quest-bot/internal/server"
	"quest-bot/internal/session"
	"quest-bot/internal/sheets"
	"quest-bot/internal/storage"
	"quest-bot/internal/tgbot"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("файл .env не найден, читаю окружение")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("база данных: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		log.Fatalf("схема базы: %v", err)
	}
	if err := db.SeedDemo(); err != nil {
		log.Printf("демо-данные: %v", err)
	}

	var mirror *sheets.Client
	if cfg.SheetID != "" {
		mirror, err = sheets.New(cfg.GoogleCredentialsPath, cfg.SheetID)
		if err != nil {
			log.Printf("Google Sheets недоступен, работаю без зеркала: %v", err)
			mirror = nil
		} else {
			log.Printf("зеркало в Google-таблице %s", mirror.SpreadsheetID())
		}
	}

	app, err := tgbot.New(cfg, db, session.NewMemoryStore(), mirror)
	if err != nil {
		log.Fatalf("телеграм: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, db)
	go func() {
		log.Printf("HTTP-сервер на %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP-сервер: %v", err)
		}
	}()

	c := cron.New()
	// напоминание о ближайших играх по четвергам
	if _, err := c.AddFunc("0 12 * * 4", app.RunFollowUp); err != nil {
		log.Fatalf("крон: %v", err)
	}
	c.Start()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("бот остановлен: %v", err)
	}

	c.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("остановка HTTP: %v", err)
	}
	log.Println("выход")
}
