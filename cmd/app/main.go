package main

import (
	"github.com/rs/zerolog/log"

	"bookery/config"
	"bookery/shared/logger"

	"bookery/di"
)

// @title Bookery API
// @version 1.0
// @description Booking platform backend: service catalog, booking lifecycle, and audit trail.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	http, err := di.InitializeService()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}

	http.Serve()
}
