package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/config"
	"flashbattle-quiz-service/internal/logger"
	transport "flashbattle-quiz-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret (JWT_SECRET) must be set")
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.Close()

	hub := transport.NewHub(log)
	rooms := app.NewRoomService(repos.rooms, repos.banks, hub, log, app.WithAdminToken(cfg.Auth.AdminToken))
	banks := app.NewBankService(repos.banks, log)
	scores := app.NewScoreService(repos.players, repos.boards, hub, log)
	boards := app.NewLeaderboardService(repos.boards, repos.users, repos.players, log)
	auth := app.NewAuthService(repos.users, app.AuthConfig{
		Secret:     cfg.Auth.JWTSecret,
		TokenTTL:   config.TTLDuration(cfg.Auth.TokenTTL, app.DefaultTokenTTL),
		BcryptCost: cfg.Auth.BcryptCost,
		Admins:     cfg.Auth.Admins,
	}, log)

	api := transport.NewAPIHandler(auth, scores, boards, log)
	var metrics *transport.Metrics
	if cfg.Server.Metrics {
		metrics = transport.NewMetrics()
	}
	ws := transport.NewWSHandler(rooms, banks, scores, auth, hub, metrics, cfg.Server.AllowedOrigins, log)
	router := transport.NewRouter(api, ws, metrics, cfg.Server.AllowedOrigins, log)

	// No write timeout: websocket connections are long-lived.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
