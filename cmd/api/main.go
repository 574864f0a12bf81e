package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/campusmesh/internal/pkg/logger"
	"github.com/yigit/campusmesh/internal/server"
)

// @title CampusMesh API
// @version 1.0
// @description Role-gated notices, messaging, approvals and analytics for a college community

// @contact.name CampusMesh maintainers

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if err := srv.Run(ctx); err != nil {
		stop()
		logger.Error().Err(err).Msg("Server stopped with errors")
		os.Exit(1)
	}

	logger.Info().Msg("Server exited gracefully")
}
