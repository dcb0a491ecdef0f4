package main

import (
	"context"
	"os"

	"github.com/ssis-app/ssis/internal/pkg/logger"
	"github.com/ssis-app/ssis/internal/server"
)

// @title SSIS API
// @version 1.0
// @description Student Information System: colleges, programs and students.

// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name access_token

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
