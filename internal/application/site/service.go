// Package site implements the site registry workflow: registration, browsing,
// and document-change intake.  Change detection compares the content hash of
// an incoming document against the hash last analyzed for the site; a
// difference publishes a change event and raises a new-document alert.
package site

import (
	"context"
	"fmt"
	"time"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/site"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// ChangeEvent is published when a site's legal document is detected to have
// changed since it was last analyzed.
type ChangeEvent struct {
	SiteID      common.SiteID        `json:"site_id"`
	Domain      string               `json:"domain"`
	ContentType analysis.ContentType `json:"content_type"`
	OldHash     analysis.ContentHash `json:"old_hash"`
	NewHash     analysis.ContentHash `json:"new_hash"`
	DetectedAt  time.Time            `json:"detected_at"`
}

// ChangePublisher delivers change events to the messaging pipeline.
type ChangePublisher interface {
	PublishDocumentChanged(ctx context.Context, ev *ChangeEvent) error
}

// Service implements site registry operations.
type Service struct {
	sites   site.Repository
	changes ChangePublisher
	logger  logging.Logger
}

// NewService wires the service.  changes may be nil to disable change events.
func NewService(sites site.Repository, changes ChangePublisher, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{sites: sites, changes: changes, logger: logger.Named("site")}
}

// RegisterInput carries a site registration request.
type RegisterInput struct {
	Domain    string `json:"domain" binding:"required"`
	Name      string `json:"name"`
	TOSURL    string `json:"tos_url"`
	PolicyURL string `json:"policy_url"`
}

// Register creates a site.  Registering an already-known domain is a
// conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*site.Site, error) {
	now := time.Now().UTC()
	st := &site.Site{
		ID:        common.SiteID(common.GenerateID("sit")),
		Domain:    in.Domain,
		Name:      in.Name,
		TOSURL:    in.TOSURL,
		PolicyURL: in.PolicyURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if existing, err := s.sites.GetByDomain(ctx, in.Domain); err == nil && existing != nil {
		return nil, errors.Conflict(fmt.Sprintf("site %s already registered", in.Domain))
	}
	if err := s.sites.Create(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info("site registered",
		logging.String("site_id", string(st.ID)),
		logging.String("domain", st.Domain),
	)
	return st, nil
}

// Get returns a site by ID.
func (s *Service) Get(ctx context.Context, id common.SiteID) (*site.Site, error) {
	return s.sites.GetByID(ctx, id)
}

// GetByDomain returns a site by domain.
func (s *Service) GetByDomain(ctx context.Context, domain string) (*site.Site, error) {
	return s.sites.GetByDomain(ctx, domain)
}

// List returns registered sites, newest first.
func (s *Service) List(ctx context.Context, page common.Pagination) ([]*site.Site, int64, error) {
	page.Normalize()
	return s.sites.List(ctx, page)
}

// ObserveDocument records that a document with the given hash was analyzed
// for the site.  When the hash differs from the last-seen one a change event
// is published; the first sighting of a document is not a change.  Returns
// whether a change was detected.
func (s *Service) ObserveDocument(ctx context.Context, id common.SiteID, ct analysis.ContentType, hash analysis.ContentHash) (bool, error) {
	st, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	changed := st.DocumentChanged(ct, hash)
	if changed && s.changes != nil {
		ev := &ChangeEvent{
			SiteID:      st.ID,
			Domain:      st.Domain,
			ContentType: ct,
			OldHash:     st.HashFor(ct),
			NewHash:     hash,
			DetectedAt:  time.Now().UTC(),
		}
		if err := s.changes.PublishDocumentChanged(ctx, ev); err != nil {
			s.logger.Warn("change event publish failed",
				logging.String("site_id", string(st.ID)),
				logging.Err(err),
			)
		}
	}
	if err := s.sites.UpdateDocumentHash(ctx, id, ct, hash); err != nil {
		return changed, err
	}
	return changed, nil
}
