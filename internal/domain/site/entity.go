// Package site implements the monitored-site registry: the mapping from a
// site to the content hashes of its last-seen legal documents, which is what
// lets document-change detection attribute cached analyses to a site.
package site

import (
	"strings"
	"time"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// Site is one monitored origin.  TOSHash and PolicyHash record the content
// hashes of the documents last analyzed for the site; an incoming document
// whose hash differs signals a change.
type Site struct {
	ID             common.SiteID        `json:"id"`
	Domain         string               `json:"domain"`
	Name           string               `json:"name"`
	TOSURL         string               `json:"tos_url,omitempty"`
	PolicyURL      string               `json:"policy_url,omitempty"`
	TOSHash        analysis.ContentHash `json:"tos_hash,omitempty"`
	PolicyHash     analysis.ContentHash `json:"policy_hash,omitempty"`
	LastAnalyzedAt *time.Time           `json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Validate enforces the structural invariants of a site record.
func (s *Site) Validate() error {
	if s.Domain == "" {
		return errors.New(errors.ErrCodeSiteInvalid, "domain is required")
	}
	if strings.ContainsAny(s.Domain, " /") {
		return errors.New(errors.ErrCodeSiteInvalid, "domain must be a bare host name").
			WithDetail(s.Domain)
	}
	return nil
}

// HashFor returns the last-seen hash for the given document type.
func (s *Site) HashFor(ct analysis.ContentType) analysis.ContentHash {
	switch ct {
	case analysis.ContentTermsOfService:
		return s.TOSHash
	case analysis.ContentPrivacyPolicy:
		return s.PolicyHash
	default:
		return ""
	}
}

// DocumentChanged reports whether the incoming hash differs from the
// last-seen hash for the document type.  A first sighting (empty last hash)
// is not a change.
func (s *Site) DocumentChanged(ct analysis.ContentType, incoming analysis.ContentHash) bool {
	last := s.HashFor(ct)
	return last != "" && last != incoming
}
