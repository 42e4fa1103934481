package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ushuari/voice/adapters/livekit"
	"github.com/ushuari/voice/internal/api"
	"github.com/ushuari/voice/internal/config"
	"github.com/ushuari/voice/internal/relay"
	"github.com/ushuari/voice/usecase"
	"github.com/ushuari/voice/usecase/agent"
)

func main() {
	envErr := config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	logger, _ := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Warn("Failed to load .env file", zap.Error(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Room provider
	rooms := usecase.NewRoomSession(usecase.RoomSessionConfig{
		APIKey:      cfg.LiveKitAPIKey,
		APISecret:   cfg.LiveKitAPISecret,
		ServerURL:   cfg.LiveKitURL,
		TTL:         cfg.LiveKitTokenTTL,
		AdminGrants: cfg.LiveKitAdminGrants,
	}, livekit.NewTokenIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret), logger)
	if err := rooms.Err(); err != nil {
		logger.Fatal("Invalid LiveKit configuration", zap.Error(err))
	}

	hub := relay.NewHub(logger)
	go hub.Run(ctx)

	roomService := livekit.NewRoomServiceClient(cfg.LiveKitHost, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret)
	publisher := relay.NewFanout(livekit.NewPublisher(roomService, cfg.LiveKitDataTopic, logger), logger, hub)

	// Providers
	openaiClient, err := newOpenAIClient(cfg)
	if err != nil {
		logger.Fatal("Invalid OpenAI configuration", zap.Error(err))
	}

	transcriber, transcriberCloser, err := newTranscriber(ctx, cfg, openaiClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize transcription", zap.Error(err))
	}
	defer transcriberCloser.Close()

	synthesizer, err := newSynthesizer(cfg, openaiClient, logger)
	if err != nil {
		logger.Fatal("Failed to initialize synthesis", zap.Error(err))
	}

	conversations, closeStore, err := newConversationStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize conversation store", zap.Error(err))
	}

	// Agents
	registry := agent.NewRegistry(completerFactory(cfg, logger), publisher, logger)
	if cfg.EagerAgents {
		if err := registry.Warm(); err != nil {
			logger.Fatal("Failed to initialize agents", zap.Error(err))
		}
	}
	coordinator := agent.NewCoordinator(registry, logger)

	// Initialize usecase services
	voice := usecase.NewVoiceService(transcriber, coordinator, conversations,
		usecase.VoiceServiceConfig{StoreAudio: cfg.StoreAudio}, logger)
	speech := usecase.NewSpeechService(synthesizer, logger)
	events := usecase.NewRoomEventService(conversations, logger)

	janitor := usecase.NewConversationJanitor(conversations,
		cfg.ConversationIdleTimeout, cfg.ConversationSweepInterval, logger)
	janitor.Start()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, api.Services{
		Voice:    voice,
		Rooms:    rooms,
		Speech:   speech,
		Events:   events,
		Webhooks: livekit.NewWebhookVerifier(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret),
		Relay:    hub,

		ObserverSecret: []byte(cfg.LiveKitAPISecret),
	}, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Voice server started",
		zap.String("port", cfg.Port),
		zap.String("completion", cfg.CompletionProvider),
		zap.String("transcription", cfg.TranscriptionProvider),
		zap.String("synthesis", cfg.SynthesisProvider),
		zap.String("store", cfg.ConversationStore))

	<-ctx.Done()
	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	janitor.Stop()
	if err := closeStore(shutdownCtx); err != nil {
		logger.Error("Failed to close conversation store", zap.Error(err))
	}

	logger.Info("Server exited")
}
