package service

import (
	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/validators"
)

// Services groups the services of the development server.
type Services struct {
	AuthService    AuthService
	FeedService    FeedService
	SyncService    SyncService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, cfg config.ServerConfig, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.Version, logger)
	if err != nil {
		return nil, err
	}

	validator := validators.NewContentValidator()

	return &Services{
		AuthService:    NewAuthService(storages.Accounts, validator, cfg, logger),
		FeedService:    NewFeedService(storages.Feed, validator, logger),
		SyncService:    NewSyncService(storages.Feed, validator, logger),
		AppInfoService: appInfo,
	}, nil
}
