package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborcx/agentdesk-backend/internal/config"
	"github.com/harborcx/agentdesk-backend/internal/handlers"
	"github.com/harborcx/agentdesk-backend/internal/insights"
	"github.com/harborcx/agentdesk-backend/internal/insights/completion"
	"github.com/harborcx/agentdesk-backend/internal/insights/prompt"
	"github.com/harborcx/agentdesk-backend/internal/observability"
	"github.com/harborcx/agentdesk-backend/internal/platform/envutil"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
	"github.com/harborcx/agentdesk-backend/internal/server"
	"github.com/harborcx/agentdesk-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config
	log.Info("Loading environment variables from main...")
	completionCfg := config.LoadCompletion()
	serverCfg := config.LoadServer()

	// Observability
	observability.Init()
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "agentdesk-backend",
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(shutdownCtx)
	}()

	// Services
	log.Info("Setting up services from main...")
	client := completion.NewClient(log, completionCfg)
	resolver := prompt.NewResolver(log,
		envutil.String("PROMPT_TEMPLATES_FILE", ""),
		envutil.String("PROMPT_TEMPLATES_DIR", ""),
	)
	customers := services.NewCustomerDirectory(log)
	orchestrator := insights.NewOrchestrator(log, resolver, client, customers)
	convStore := services.NewConversationStore(log, serverCfg.RedisAddr, serverCfg.ConversationTTL)
	replySvc := services.NewReplyService(log, client, serverCfg.DisableAutoReply)

	// Handlers
	log.Info("Setting up handlers from main...")
	insightsHandler := handlers.NewInsightsHandler(log, orchestrator, convStore)
	conversationHandler := handlers.NewConversationHandler(log, convStore, replySvc)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		InsightsHandler:     insightsHandler,
		ConversationHandler: conversationHandler,
	})

	srv := &http.Server{
		Addr:              ":" + serverCfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("Server listening", "port", serverCfg.Port)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		log.Info("Server stopped")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
		}
	}
}
