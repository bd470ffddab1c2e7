package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planmymeals/internal/clipper"
	"planmymeals/internal/config"
	"planmymeals/internal/database"
	"planmymeals/internal/identity"
	"planmymeals/internal/mealplan"
	"planmymeals/internal/planstore"
	"planmymeals/internal/recipe"
	"planmymeals/internal/session"
	"planmymeals/internal/telegram"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" || cfg.TelegramAllowUserID == 0 {
		log.Fatal("TELEGRAM_BOT_TOKEN, TELEGRAM_WEBHOOK_URL and TELEGRAM_ALLOW_USER_ID must be set")
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	sessionStore, err := session.NewFileStore(cfg.SessionDir)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	var provider identity.Provider
	if cfg.AuthToken != "" {
		provider = identity.NewTokenProvider(cfg.AuthToken, []byte(cfg.AuthTokenSecret))
	} else {
		provider = identity.NewStatic(cfg.UserID)
	}

	recipeRepo := recipe.NewRepository(db.SQL)
	itemStore := planstore.New(db.SQL, provider)
	weekCache := mealplan.NewWeekItemsCache(sessionStore)
	viewStore := mealplan.NewViewStateStore(sessionStore)
	planner := mealplan.NewPlanner(itemStore, weekCache)
	defer planner.Close()

	bot, err := telegram.NewBot(cfg, planner, clipper.New(recipeRepo), recipeRepo, viewStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
