package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"bookery/config"
	"bookery/di"
	"bookery/shared/logger"
)

func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	handler, err := di.InitializeService()
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize service")
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	handler.ServeHTTP(w, r)
}
