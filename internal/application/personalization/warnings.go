package personalization

import (
	"github.com/privlens/privlens/internal/domain/personalization"
	"github.com/privlens/privlens/internal/domain/preference"
)

// criticalFlags and highFlags tier violated preferences for warning display.
// Flags in neither set warn at medium when data-adjacent, low otherwise; the
// tiers are fixed product copy, not user-configurable.
var criticalFlags = map[preference.FlagName]struct{}{
	preference.AllowDataSelling:          {},
	preference.AllowKeyboardInputReading: {},
	preference.AllowClipboardReading:     {},
}

var highFlags = map[preference.FlagName]struct{}{
	preference.AllowThirdPartySharing: {},
	preference.AllowPreciseLocation:   {},
	preference.AllowCameraAccess:      {},
	preference.AllowMicrophoneAccess:  {},
}

var mediumFlags = map[preference.FlagName]struct{}{
	preference.AllowMarketingDataSharing: {},
	preference.AllowCrossSiteTracking:    {},
	preference.AllowIndefiniteRetention:  {},
}

// warningMessages holds the fixed user-facing copy per flag.  Flags without
// an entry get the generic message.
var warningMessages = map[preference.FlagName]string{
	preference.AllowDataSelling:            "This service may sell your personal data.",
	preference.AllowThirdPartySharing:      "Your data may be shared with third parties.",
	preference.AllowMarketingDataSharing:   "Your data may be shared for marketing purposes.",
	preference.AllowAffiliateSharing:       "Your data may be shared with corporate affiliates.",
	preference.AllowPreciseLocation:        "This service collects your precise location.",
	preference.AllowCameraAccess:           "This service may access your camera or photos.",
	preference.AllowMicrophoneAccess:       "This service may access your microphone.",
	preference.AllowContactsAccess:         "This service may read your contacts.",
	preference.AllowKeyboardInputReading:   "This service may record what you type.",
	preference.AllowClipboardReading:       "This service may read your clipboard.",
	preference.AllowBrowsingHistoryCollection: "This service collects your browsing history.",
	preference.AllowCrossSiteTracking:      "You may be tracked across other websites.",
	preference.AllowThirdPartyCookies:      "Third-party cookies are used.",
	preference.AllowDeviceFingerprinting:   "Your device may be fingerprinted for identification.",
	preference.AllowAdTargeting:            "Your data is used for targeted advertising.",
	preference.AllowIndefiniteRetention:    "Your data may be retained indefinitely.",
	preference.AllowPostDeletionRetention:  "Your data may be kept after you delete your account.",
	preference.AllowEmployeeDataAccess:     "Company employees may access your data.",
	preference.AllowContractorDataAccess:   "External contractors may access your data.",
	preference.AllowCrossBorderTransfer:    "Your data may be transferred to other countries.",
	preference.AllowUnencryptedStorage:     "Your data may be stored without encryption.",
	preference.AllowAITraining:             "Your data may be used to train AI models.",
	preference.AllowAutomatedDecisions:     "Automated decisions may be made about you.",
	preference.AllowPromotionalEmail:       "You may receive promotional emails.",
	preference.AllowSMSMarketing:           "You may receive marketing text messages.",
}

const genericWarning = "This service conflicts with one of your privacy preferences."

func severityFor(flag preference.FlagName) personalization.WarningSeverity {
	if _, ok := criticalFlags[flag]; ok {
		return personalization.WarnCritical
	}
	if _, ok := highFlags[flag]; ok {
		return personalization.WarnHigh
	}
	if _, ok := mediumFlags[flag]; ok {
		return personalization.WarnMedium
	}
	return personalization.WarnLow
}

// buildWarnings produces one warning per violated preference, in the same
// order as the violation list.
func buildWarnings(violations []preference.FlagName) []personalization.Warning {
	out := make([]personalization.Warning, 0, len(violations))
	for _, flag := range violations {
		msg, ok := warningMessages[flag]
		if !ok {
			msg = genericWarning
		}
		out = append(out, personalization.Warning{
			Preference: flag,
			Message:    msg,
			Severity:   severityFor(flag),
		})
	}
	return out
}
