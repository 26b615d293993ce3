package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acortes/librarium-be/internal/api"
	"github.com/acortes/librarium-be/internal/auth"
	"github.com/acortes/librarium-be/internal/config"
	"github.com/acortes/librarium-be/internal/database"
	"github.com/acortes/librarium-be/internal/logger"
	"github.com/acortes/librarium-be/internal/maintenance"
	"github.com/acortes/librarium-be/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init()

	// Set up database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	auth.Init(cfg.Auth.JWTSecret)

	// Set up the mailer; without an SMTP host configured, verification
	// mails are silently dropped.
	var mailer services.EmailSender
	if cfg.Email.SMTPHost != "" {
		mailer = services.NewEmailService(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.FromEmail, cfg.App.URL)
	} else {
		log.Println("SMTP host not configured; verification emails disabled")
		mailer = services.NopEmailSender{}
	}

	// Set up services
	userService := services.NewUserService(db, mailer)
	userService.RequireVerified = cfg.Auth.RequireVerified
	bookService := services.NewBookService(db)
	borrowService := services.NewBorrowService(db)

	// Seed the sample catalog and admin account on first start
	if err := bookService.EnsureSampleCatalog(); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	if err := userService.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatalf("Failed to create sample admin: %v", err)
	}

	// Set up and run the background token sweeper
	sweeper, err := maintenance.NewSweeper(userService, cfg.Sweeper.Schedule)
	if err != nil {
		log.Fatalf("Invalid sweeper schedule: %v", err)
	}
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(userService, bookService, borrowService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("API listening on http://localhost:%d\n", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
