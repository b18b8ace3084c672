package handler

import (
	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/handler/http"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/service"
)

// Handlers groups the transport handlers enabled by the configuration.
type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, cfg config.ServerConfig, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, cfg, logger)
	}

	if handlers.HTTP == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
