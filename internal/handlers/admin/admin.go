package admin

import (
	"go.uber.org/zap"

	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

type Handler struct {
	store *store.Store
	audit utils.AuditReader
	log   *zap.Logger
}

// New builds the staff handlers. audit may be nil when no audit store is configured.
func New(s *store.Store, audit utils.AuditReader, log *zap.Logger) *Handler {
	return &Handler{store: s, audit: audit, log: log}
}
