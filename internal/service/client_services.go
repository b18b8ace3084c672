package service

import (
	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
)

type ClientServices struct {
	AuthService    ClientAuthService
	PostService    ClientPostService
	DraftService   ClientDraftService
	CommentService ClientCommentService
	SyncService    ClientSyncService
	SyncJob        ClientSyncJob
}

// NewClientServices wires the client services around one local database.
// The post, comment and sync services share a pusher so foreground pushes
// and sync passes never deliver the same row twice at once.
func NewClientServices(
	storages *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	sess *session.Session,
	monitor network.Monitor,
	cfg config.ClientWorkers,
	logger *logger.Logger,
) *ClientServices {
	mapper := newIdentityMapper(storages, logger)
	push := newPusher(storages, serverAdapter, mapper, cfg.MaxSyncAttempts, logger)

	posts := newClientPostService(storages, serverAdapter, sess, monitor, mapper, push, logger)
	syncSvc := newClientSyncService(storages, serverAdapter, sess, monitor, push, logger)

	return &ClientServices{
		AuthService:    NewClientAuthService(storages, serverAdapter, sess, monitor, logger),
		PostService:    posts,
		DraftService:   newClientDraftService(storages, sess, posts, logger),
		CommentService: newClientCommentService(storages, sess, monitor, push, posts, logger),
		SyncService:    syncSvc,
		SyncJob:        NewClientSyncJob(syncSvc, monitor, cfg, logger),
	}
}
