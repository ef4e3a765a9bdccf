package site

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/site"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

type mockRepo struct {
	byDomain map[string]*site.Site
	byID     map[common.SiteID]*site.Site
	created  []*site.Site
	updates  []struct {
		ID   common.SiteID
		CT   analysis.ContentType
		Hash analysis.ContentHash
	}
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byDomain: map[string]*site.Site{},
		byID:     map[common.SiteID]*site.Site{},
	}
}

func (m *mockRepo) add(s *site.Site) {
	m.byDomain[s.Domain] = s
	m.byID[s.ID] = s
}

func (m *mockRepo) Create(_ context.Context, s *site.Site) error {
	m.created = append(m.created, s)
	m.add(s)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id common.SiteID) (*site.Site, error) {
	if s, ok := m.byID[id]; ok {
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeSiteNotFound, "site not found")
}

func (m *mockRepo) GetByDomain(_ context.Context, domain string) (*site.Site, error) {
	if s, ok := m.byDomain[domain]; ok {
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeSiteNotFound, "site not found")
}

func (m *mockRepo) List(context.Context, common.Pagination) ([]*site.Site, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) UpdateDocumentHash(_ context.Context, id common.SiteID, ct analysis.ContentType, hash analysis.ContentHash) error {
	m.updates = append(m.updates, struct {
		ID   common.SiteID
		CT   analysis.ContentType
		Hash analysis.ContentHash
	}{id, ct, hash})
	return nil
}

func (m *mockRepo) ListDueForAnalysis(context.Context, time.Time, int) ([]*site.Site, error) {
	return nil, nil
}

type mockPublisher struct {
	events []*ChangeEvent
	err    error
}

func (m *mockPublisher) PublishDocumentChanged(_ context.Context, ev *ChangeEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func TestRegister(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil, nil)

	st, err := svc.Register(context.Background(), RegisterInput{
		Domain: "example.com",
		Name:   "Example",
		TOSURL: "https://example.com/tos",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, "example.com", st.Domain)
	require.Len(t, repo.created, 1)
}

func TestRegisterDuplicateDomainConflicts(t *testing.T) {
	repo := newMockRepo()
	repo.add(&site.Site{ID: "sit_existing", Domain: "example.com"})
	svc := NewService(repo, nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Domain: "example.com"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
	assert.Empty(t, repo.created)
}

func TestRegisterRejectsInvalidDomain(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	_, err := svc.Register(context.Background(), RegisterInput{Domain: "not a domain"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSiteInvalid))
}

func TestObserveDocumentFirstSightingNotAChange(t *testing.T) {
	repo := newMockRepo()
	repo.add(&site.Site{ID: "sit_1", Domain: "example.com"})
	pub := &mockPublisher{}
	svc := NewService(repo, pub, nil)

	changed, err := svc.ObserveDocument(context.Background(), "sit_1", analysis.ContentTermsOfService, "hash1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, pub.events)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, analysis.ContentHash("hash1"), repo.updates[0].Hash)
}

func TestObserveDocumentChangePublishesEvent(t *testing.T) {
	repo := newMockRepo()
	repo.add(&site.Site{ID: "sit_1", Domain: "example.com", TOSHash: "old"})
	pub := &mockPublisher{}
	svc := NewService(repo, pub, nil)

	changed, err := svc.ObserveDocument(context.Background(), "sit_1", analysis.ContentTermsOfService, "new")
	require.NoError(t, err)
	assert.True(t, changed)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, common.SiteID("sit_1"), ev.SiteID)
	assert.Equal(t, analysis.ContentHash("old"), ev.OldHash)
	assert.Equal(t, analysis.ContentHash("new"), ev.NewHash)
}

func TestObserveDocumentPublishFailureStillUpdatesHash(t *testing.T) {
	repo := newMockRepo()
	repo.add(&site.Site{ID: "sit_1", Domain: "example.com", PolicyHash: "old"})
	pub := &mockPublisher{err: errors.New(errors.ErrCodeAlertPublishFailed, "broker down")}
	svc := NewService(repo, pub, nil)

	changed, err := svc.ObserveDocument(context.Background(), "sit_1", analysis.ContentPrivacyPolicy, "new")
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, repo.updates, 1)
}

func TestObserveDocumentUnknownSite(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	_, err := svc.ObserveDocument(context.Background(), "sit_missing", analysis.ContentTermsOfService, "h")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSiteNotFound))
}
