// Package personalization implements the personalization engine: a pure
// derivation of one user's risk view from a cached analysis and a preference
// set, plus the surrounding history recording and alerting.
package personalization

import (
	"sort"
	"strings"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/preference"
)

// clauseRule binds clause-text keywords within one risk category to the
// preference flag they violate.  Matching is case-insensitive substring
// containment on the clause text; the clause's category must match first.
type clauseRule struct {
	category analysis.RiskCategory
	keywords []string
	flag     preference.FlagName
}

// clauseRules is the declarative category+keyword to flag mapping.  Rules are
// evaluated in order; every matching rule whose flag the user disallows adds
// that flag to the violation set.  The user_rights category is deliberately
// absent: no preference flag governs it, so its clauses contribute no
// violations.
var clauseRules = []clauseRule{
	{analysis.CategoryDataSharing, []string{"sell", "selling", "monetize"}, preference.AllowDataSelling},
	{analysis.CategoryDataSharing, []string{"third party", "third-party", "partners"}, preference.AllowThirdPartySharing},
	{analysis.CategoryDataSharing, []string{"marketing"}, preference.AllowMarketingDataSharing},
	{analysis.CategoryDataSharing, []string{"affiliate"}, preference.AllowAffiliateSharing},

	{analysis.CategoryDataCollection, []string{"location", "gps"}, preference.AllowPreciseLocation},
	{analysis.CategoryDataCollection, []string{"camera", "photo"}, preference.AllowCameraAccess},
	{analysis.CategoryDataCollection, []string{"microphone", "audio record"}, preference.AllowMicrophoneAccess},
	{analysis.CategoryDataCollection, []string{"contacts", "address book"}, preference.AllowContactsAccess},
	{analysis.CategoryDataCollection, []string{"keyboard", "keystroke", "typing"}, preference.AllowKeyboardInputReading},
	{analysis.CategoryDataCollection, []string{"clipboard"}, preference.AllowClipboardReading},
	{analysis.CategoryDataCollection, []string{"browsing history"}, preference.AllowBrowsingHistoryCollection},

	{analysis.CategoryTracking, []string{"track", "tracking"}, preference.AllowCrossSiteTracking},
	{analysis.CategoryTracking, []string{"cookie"}, preference.AllowThirdPartyCookies},
	{analysis.CategoryTracking, []string{"fingerprint"}, preference.AllowDeviceFingerprinting},
	{analysis.CategoryTracking, []string{"advertis"}, preference.AllowAdTargeting},

	{analysis.CategoryDataRetention, []string{"indefinite", "perpetual"}, preference.AllowIndefiniteRetention},
	{analysis.CategoryDataRetention, []string{"after deletion", "after you delete"}, preference.AllowPostDeletionRetention},

	{analysis.CategoryInternalAccess, []string{"employee", "staff", "personnel"}, preference.AllowEmployeeDataAccess},
	{analysis.CategoryInternalAccess, []string{"contractor", "vendor"}, preference.AllowContractorDataAccess},

	{analysis.CategoryCrossBorder, []string{"transfer", "overseas", "international"}, preference.AllowCrossBorderTransfer},

	{analysis.CategorySecurity, []string{"unencrypted", "plaintext", "plain text"}, preference.AllowUnencryptedStorage},

	{analysis.CategoryAIUsage, []string{"train", "machine learning", "ai model"}, preference.AllowAITraining},
	{analysis.CategoryAIUsage, []string{"automated decision", "automated processing"}, preference.AllowAutomatedDecisions},

	{analysis.CategoryCommunications, []string{"promotional", "newsletter"}, preference.AllowPromotionalEmail},
	{analysis.CategoryCommunications, []string{"sms", "text message"}, preference.AllowSMSMarketing},
}

// matchViolations evaluates the rule table against the detected clauses under
// the given preference set.  The returned flag list is deduplicated and
// sorted for deterministic output; a preference violated by five clauses
// counts once.
func matchViolations(clauses []analysis.DetectedClause, prefs *preference.Set) []preference.FlagName {
	seen := map[preference.FlagName]struct{}{}
	for _, c := range clauses {
		text := strings.ToLower(c.Text)
		for _, rule := range clauseRules {
			if rule.category != c.RiskCategory {
				continue
			}
			if prefs.Allows(rule.flag) {
				continue
			}
			for _, kw := range rule.keywords {
				if strings.Contains(text, kw) {
					seen[rule.flag] = struct{}{}
					break
				}
			}
		}
	}
	out := make([]preference.FlagName, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
