package main

import (
	"os"

	"github.com/yigit/rosterhub/internal/pkg/logger"
	"github.com/yigit/rosterhub/internal/server"
)

// @title RosterHub API
// @version 1.0
// @description Student roster and academic history service

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token as "Bearer <token>". The roster_session cookie is accepted as well.

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Setup functions log the details.
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
