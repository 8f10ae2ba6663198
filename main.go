package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailqa/internal/ai"
	"mailqa/internal/config"
	"mailqa/internal/credential"
	"mailqa/internal/handler"
	"mailqa/internal/health"
	"mailqa/internal/logger"
	"mailqa/internal/mail"
	"mailqa/internal/metrics"
	"mailqa/internal/model"
	"mailqa/internal/repository"
	"mailqa/internal/repository/memory"
	"mailqa/internal/repository/postgres"
	"mailqa/internal/router"
	"mailqa/internal/service"
	"mailqa/internal/session"
	"mailqa/internal/sse"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal("Config validation failed:", err)
	}

	appLogger := logger.NewWithOptions(logger.Options{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
		LogFile:     cfg.LogFile,
	})
	defer func() { _ = appLogger.Sync() }()

	// Accounts live in postgres when DATABASE_URL is set, in memory otherwise.
	// Mail is always per session and in memory.
	var userRepo repository.UserRepository
	var db *sql.DB

	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer db.Close()

		if err := postgres.InitializeDatabase(db); err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		userRepo = postgres.NewPostgresUserRepository(db)

		appLogger.Info("Using PostgreSQL user repository")
	} else {
		userRepo = memory.NewInMemoryUserRepository()

		appLogger.Info("Using in-memory user repository")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	authService := service.NewAuthService(userRepo, appLogger)

	aiClient := ai.NewAIClient(ai.Options{
		Provider:          cfg.AIProvider,
		APIKey:            cfg.AIKey,
		Model:             cfg.AIModel,
		RequestsPerMinute: cfg.AIRequestsPerMinute,
		Timeout:           cfg.LLMTimeout,
	}, appLogger)

	mailClient := mail.NewUserClient(userRepo, cfg.GraphAPIEndpoint, &http.Client{Timeout: cfg.MailTimeout}, appLogger)
	if cfg.GoogleEnabled() {
		mailClient.WithOAuthConfig(model.ProviderGoogle, &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     endpoints.Google,
		})
	}
	if cfg.MicrosoftEnabled() {
		mailClient.WithOAuthConfig(model.ProviderMicrosoft, &oauth2.Config{
			ClientID:     cfg.MicrosoftClientID,
			ClientSecret: cfg.MicrosoftClientSecret,
			Endpoint:     endpoints.Microsoft,
		})
	}
	if cfg.IMAPEnabled() {
		password := cfg.IMAPPassword
		if password == "" {
			store, err := credential.Open()
			if err != nil {
				log.Fatal("Failed to open keyring:", err)
			}
			password, err = store.ResolveIMAPPassword(cfg.IMAPUsername, cfg.IMAPPassword)
			if err != nil {
				log.Fatal("Failed to resolve IMAP password:", err)
			}
		}
		mailClient.WithFixedMailbox(mail.NewIMAPClient(mail.IMAPOptions{
			Host:     cfg.IMAPHost,
			Port:     cfg.IMAPPort,
			Username: cfg.IMAPUsername,
			Password: password,
			TLS:      cfg.IMAPTLS,
		}, appLogger))
		appLogger.Info("Reading mail from IMAP mailbox", cfg.IMAPUsername, "at", cfg.IMAPHost)
	}

	sampleQuestions, err := service.LoadSampleQuestions(cfg.SampleQuestionsFile)
	if err != nil {
		log.Fatal("Failed to load sample questions:", err)
	}

	// Initialize SSE manager for progress updates
	sseManager := sse.NewSSEManager(appLogger)

	sessionManager := session.NewManager(session.Options{
		MailClient:  mailClient,
		LLMClient:   aiClient,
		Notifier:    sseManager,
		Metrics:     appMetrics,
		Logger:      appLogger,
		MailTimeout: cfg.MailTimeout,
		LLMTimeout:  cfg.LLMTimeout,
	})

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	sessionStore := handler.NewSessionStore([]byte(cfg.SessionSecret), !cfg.IsDevelopment())
	authHandler := handler.NewAuthHandler(authService, sessionManager, sessionStore, cfg, e.Logger)
	emailHandler := handler.NewEmailHandler(sessionManager, authHandler, sseManager, e.Logger)
	questionHandler := handler.NewQuestionHandler(sessionManager, authHandler, sampleQuestions, e.Logger)

	router.SetupRoutes(e, authHandler, emailHandler, questionHandler, appMetrics, health.NewChecker(db))

	go func() {
		appLogger.Info("Starting server on port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server:", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("Shutting down server")
	// Open event streams end when the manager closes their channels.
	sseManager.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed:", err)
	}
}
