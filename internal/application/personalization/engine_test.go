package personalization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/personalization"
	"github.com/privlens/privlens/internal/domain/preference"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

type mockPrefs struct {
	set *preference.Set
	err error
}

func (m *mockPrefs) Get(context.Context, common.UserID) (*preference.Set, error) {
	return m.set, m.err
}

func (m *mockPrefs) Save(context.Context, *preference.Set) error { return nil }

type mockHistory struct {
	recorded  []*personalization.Result
	decisions map[common.ID]personalization.Decision
	siteUsers []common.UserID
	usersErr  error
}

func (m *mockHistory) Record(_ context.Context, r *personalization.Result) error {
	m.recorded = append(m.recorded, r)
	return nil
}

func (m *mockHistory) GetByID(context.Context, common.ID) (*personalization.Result, error) {
	return nil, errors.New(errors.ErrCodeResultNotFound, "not found")
}

func (m *mockHistory) ListByUser(context.Context, common.UserID, common.Pagination) ([]*personalization.Result, int64, error) {
	return m.recorded, int64(len(m.recorded)), nil
}

func (m *mockHistory) ListUsersBySite(context.Context, common.SiteID) ([]common.UserID, error) {
	return m.siteUsers, m.usersErr
}

func (m *mockHistory) RecordDecision(_ context.Context, id common.ID, d personalization.Decision) error {
	if m.decisions == nil {
		m.decisions = map[common.ID]personalization.Decision{}
	}
	m.decisions[id] = d
	return nil
}

type mockAlerts struct {
	published []*Alert
}

func (m *mockAlerts) PublishAlert(_ context.Context, a *Alert) error {
	m.published = append(m.published, a)
	return nil
}

func sellingAnalysis(score int) *analysis.CachedAnalysis {
	return &analysis.CachedAnalysis{
		ID:               "anl_1",
		ContentHash:      "abc",
		ContentType:      analysis.ContentTermsOfService,
		OverallRiskScore: score,
		Confidence:       0.9,
		DetectedClauses: []analysis.DetectedClause{
			{
				Text:         "We may sell your personal data.",
				RiskLevel:    analysis.SeverityCritical,
				RiskCategory: analysis.CategoryDataSharing,
			},
		},
	}
}

func TestDeriveAppliesViolationPenalty(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1") // data selling disallowed by default

	d := Derive(sellingAnalysis(50), prefs)
	require.Equal(t, []preference.FlagName{preference.AllowDataSelling}, d.ViolatedPreferences)
	assert.Equal(t, 55, d.PersonalizedScore)
	assert.Equal(t, personalization.RecommendProceed, d.Recommendation)
	require.Len(t, d.Warnings, 1)
	assert.Equal(t, personalization.WarnCritical, d.Warnings[0].Severity)
}

func TestDeriveNoViolationWhenAllowed(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	require.NoError(t, prefs.Apply(map[preference.FlagName]bool{preference.AllowDataSelling: true}))

	d := Derive(sellingAnalysis(50), prefs)
	assert.Empty(t, d.ViolatedPreferences)
	assert.Equal(t, 50, d.PersonalizedScore)
	assert.Empty(t, d.Warnings)
}

func TestDeriveRecommendationThresholds(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	require.NoError(t, prefs.Apply(map[preference.FlagName]bool{preference.AllowDataSelling: true}))

	tests := []struct {
		score int
		want  personalization.Recommendation
	}{
		{59, personalization.RecommendProceed},
		{60, personalization.RecommendCaution},
		{79, personalization.RecommendCaution},
		{80, personalization.RecommendAvoid},
		{100, personalization.RecommendAvoid},
	}
	for _, tt := range tests {
		d := Derive(sellingAnalysis(tt.score), prefs)
		assert.Equal(t, tt.want, d.Recommendation, "score %d", tt.score)
	}
}

// violatingClauses returns n clauses that each violate one distinct
// default-restrictive preference.
func violatingClauses(n int) []analysis.DetectedClause {
	all := []analysis.DetectedClause{
		{Text: "We sell your data.", RiskCategory: analysis.CategoryDataSharing},
		{Text: "Shared with our partners.", RiskCategory: analysis.CategoryDataSharing},
		{Text: "We collect GPS location.", RiskCategory: analysis.CategoryDataCollection},
		{Text: "Camera access is required.", RiskCategory: analysis.CategoryDataCollection},
		{Text: "The microphone may be activated.", RiskCategory: analysis.CategoryDataCollection},
	}
	return all[:n]
}

func clauseAnalysis(score int, clauses []analysis.DetectedClause) *analysis.CachedAnalysis {
	return &analysis.CachedAnalysis{
		ID:               "anl_1",
		ContentHash:      "abc",
		ContentType:      analysis.ContentTermsOfService,
		OverallRiskScore: score,
		Confidence:       0.9,
		DetectedClauses:  clauses,
	}
}

func TestDeriveViolationCountBranches(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")

	tests := []struct {
		name       string
		score      int
		violations int
		wantScore  int
		want       personalization.Recommendation
	}{
		{"five violations force avoid at low score", 10, 5, 35, personalization.RecommendAvoid},
		{"three violations force caution at low score", 10, 3, 25, personalization.RecommendCaution},
		{"two violations stay proceed", 10, 2, 20, personalization.RecommendProceed},
		{"four violations over high base avoid by score", 75, 4, 95, personalization.RecommendAvoid},
		{"three violations over mid base caution by score", 50, 3, 65, personalization.RecommendCaution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(clauseAnalysis(tt.score, violatingClauses(tt.violations)), prefs)
			require.Len(t, d.ViolatedPreferences, tt.violations)
			assert.Equal(t, tt.wantScore, d.PersonalizedScore)
			assert.Equal(t, tt.want, d.Recommendation)
		})
	}
}

func TestDeriveScoreCappedAt100(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	d := Derive(sellingAnalysis(98), prefs)
	assert.Equal(t, 100, d.PersonalizedScore)
}

func TestDeriveIsPure(t *testing.T) {
	prefs := preference.NewDefaultSet("usr_1")
	a := sellingAnalysis(70)

	d1 := Derive(a, prefs)
	d2 := Derive(a, prefs)
	assert.Equal(t, d1, d2)
	assert.Equal(t, 70, a.OverallRiskScore, "input analysis must not be mutated")
	assert.False(t, prefs.Allows(preference.AllowDataSelling), "input preferences must not be mutated")
}

func TestPersonalizeRecordsHistoryAndAlerts(t *testing.T) {
	history := &mockHistory{}
	alerts := &mockAlerts{}
	engine := NewEngine(&mockPrefs{set: preference.NewDefaultSet("usr_1")}, history, alerts, nil)

	// 85 + 5 = 90: avoid.
	result, err := engine.Personalize(context.Background(), "usr_1", "sit_1", sellingAnalysis(85))
	require.NoError(t, err)
	assert.Equal(t, personalization.RecommendAvoid, result.Recommendation)
	assert.NotEmpty(t, result.ID)

	require.Len(t, history.recorded, 1)
	require.Len(t, alerts.published, 1)
	assert.Equal(t, AlertHighRiskVisit, alerts.published[0].AlertType)
	assert.Equal(t, 90, alerts.published[0].RiskScore)
	assert.Equal(t, highRiskMessage, alerts.published[0].Message)
}

func TestPersonalizeCautionWithViolationsAlerts(t *testing.T) {
	alerts := &mockAlerts{}
	engine := NewEngine(&mockPrefs{set: preference.NewDefaultSet("usr_1")}, &mockHistory{}, alerts, nil)

	// 60 + 5 = 65: caution with one violation.
	_, err := engine.Personalize(context.Background(), "usr_1", "sit_1", sellingAnalysis(60))
	require.NoError(t, err)
	require.Len(t, alerts.published, 1)
	assert.Equal(t, AlertPreferenceViolation, alerts.published[0].AlertType)
	assert.Equal(t, "This service may sell your personal data.", alerts.published[0].Message)
}

func TestPersonalizeProceedNeverAlerts(t *testing.T) {
	alerts := &mockAlerts{}
	engine := NewEngine(&mockPrefs{set: preference.NewDefaultSet("usr_1")}, &mockHistory{}, alerts, nil)

	_, err := engine.Personalize(context.Background(), "usr_1", "sit_1", sellingAnalysis(20))
	require.NoError(t, err)
	assert.Empty(t, alerts.published)
}

func TestPersonalizeValidatesInput(t *testing.T) {
	engine := NewEngine(&mockPrefs{set: preference.NewDefaultSet("usr_1")}, &mockHistory{}, nil, nil)

	_, err := engine.Personalize(context.Background(), "", "sit_1", sellingAnalysis(20))
	assert.Error(t, err)
	_, err = engine.Personalize(context.Background(), "usr_1", "", sellingAnalysis(20))
	assert.Error(t, err)
	_, err = engine.Personalize(context.Background(), "usr_1", "sit_1", nil)
	assert.Error(t, err)
}

func TestNotifySiteChangedFansOutToSiteUsers(t *testing.T) {
	history := &mockHistory{siteUsers: []common.UserID{"usr_1", "usr_2"}}
	alerts := &mockAlerts{}
	engine := NewEngine(&mockPrefs{}, history, alerts, nil)

	notified, err := engine.NotifySiteChanged(context.Background(), "sit_1")
	require.NoError(t, err)
	assert.Equal(t, 2, notified)
	require.Len(t, alerts.published, 2)
	assert.Equal(t, AlertNewTOSDetected, alerts.published[0].AlertType)
	assert.Equal(t, newDocumentMessage, alerts.published[0].Message)
	assert.Equal(t, common.SiteID("sit_1"), alerts.published[0].SiteID)
	assert.Equal(t, common.UserID("usr_1"), alerts.published[0].UserID)
	assert.Equal(t, common.UserID("usr_2"), alerts.published[1].UserID)
}

func TestNotifySiteChangedNoUsers(t *testing.T) {
	alerts := &mockAlerts{}
	engine := NewEngine(&mockPrefs{}, &mockHistory{}, alerts, nil)

	notified, err := engine.NotifySiteChanged(context.Background(), "sit_1")
	require.NoError(t, err)
	assert.Zero(t, notified)
	assert.Empty(t, alerts.published)

	_, err = engine.NotifySiteChanged(context.Background(), "")
	assert.Error(t, err)
}

func TestRecordDecision(t *testing.T) {
	history := &mockHistory{}
	engine := NewEngine(&mockPrefs{}, history, nil, nil)

	require.NoError(t, engine.RecordDecision(context.Background(), "prs_1", personalization.DecisionAvoided))
	assert.Equal(t, personalization.DecisionAvoided, history.decisions["prs_1"])

	err := engine.RecordDecision(context.Background(), "prs_1", "shrugged")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDecisionInvalid))
}
