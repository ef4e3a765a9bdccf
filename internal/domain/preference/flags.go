// Package preference implements the user preference bounded context: a flat
// set of ~50 independently toggled boolean flags grouped into ten semantic
// categories.  Flags are modeled as a mapping from an enumerated flag name to
// bool rather than fifty struct fields, which keeps the personalization rule
// tables data-driven and testable in isolation from the storage schema.
package preference

// FlagName enumerates every preference flag.
type FlagName string

// FlagCategory groups flags for presentation and defaulting.
type FlagCategory string

const (
	GroupSharing        FlagCategory = "sharing"
	GroupCollection     FlagCategory = "collection"
	GroupTracking       FlagCategory = "tracking"
	GroupRetention      FlagCategory = "retention"
	GroupInternalAccess FlagCategory = "internal_access"
	GroupCrossBorder    FlagCategory = "cross_border"
	GroupSecurity       FlagCategory = "security"
	GroupAI             FlagCategory = "ai"
	GroupCommunications FlagCategory = "communications"
	GroupMisc           FlagCategory = "misc"
)

// Data sharing and selling.
const (
	AllowDataSelling         FlagName = "allow_data_selling"
	AllowThirdPartySharing   FlagName = "allow_third_party_sharing"
	AllowMarketingDataSharing FlagName = "allow_marketing_data_sharing"
	AllowAffiliateSharing    FlagName = "allow_affiliate_sharing"
	AllowAggregateSharing    FlagName = "allow_aggregate_sharing"
	AllowResearchSharing     FlagName = "allow_research_sharing"
)

// Data collection.
const (
	AllowPreciseLocation           FlagName = "allow_precise_location"
	AllowCoarseLocation            FlagName = "allow_coarse_location"
	AllowCameraAccess              FlagName = "allow_camera_access"
	AllowMicrophoneAccess          FlagName = "allow_microphone_access"
	AllowContactsAccess            FlagName = "allow_contacts_access"
	AllowKeyboardInputReading      FlagName = "allow_keyboard_input_reading"
	AllowClipboardReading          FlagName = "allow_clipboard_reading"
	AllowBrowsingHistoryCollection FlagName = "allow_browsing_history_collection"
	AllowUsageAnalytics            FlagName = "allow_usage_analytics"
	AllowCrashReports              FlagName = "allow_crash_reports"
)

// Tracking.
const (
	AllowCrossSiteTracking    FlagName = "allow_cross_site_tracking"
	AllowThirdPartyCookies    FlagName = "allow_third_party_cookies"
	AllowFirstPartyCookies    FlagName = "allow_first_party_cookies"
	AllowDeviceFingerprinting FlagName = "allow_device_fingerprinting"
	AllowAdTargeting          FlagName = "allow_ad_targeting"
	AllowSessionReplay        FlagName = "allow_session_replay"
)

// Retention.
const (
	AllowIndefiniteRetention   FlagName = "allow_indefinite_retention"
	AllowPostDeletionRetention FlagName = "allow_post_deletion_retention"
	AllowBackupRetention       FlagName = "allow_backup_retention"
	AllowLogRetention          FlagName = "allow_log_retention"
)

// Internal access.
const (
	AllowEmployeeDataAccess   FlagName = "allow_employee_data_access"
	AllowContractorDataAccess FlagName = "allow_contractor_data_access"
	AllowSupportAccess        FlagName = "allow_support_access"
)

// Cross-border transfer.
const (
	AllowCrossBorderTransfer FlagName = "allow_cross_border_transfer"
	AllowNonAdequateTransfer FlagName = "allow_non_adequate_transfer"
	AllowGovernmentRequests  FlagName = "allow_government_requests"
)

// Security.
const (
	AllowUnencryptedStorage      FlagName = "allow_unencrypted_storage"
	AllowUnencryptedTransmission FlagName = "allow_unencrypted_transmission"
	AllowDelayedBreachNotice     FlagName = "allow_delayed_breach_notice"
)

// AI-specific.
const (
	AllowAITraining         FlagName = "allow_ai_training"
	AllowAutomatedDecisions FlagName = "allow_automated_decisions"
	AllowAIProfiling        FlagName = "allow_ai_profiling"
	AllowSyntheticContent   FlagName = "allow_synthetic_content"
)

// Communications.
const (
	AllowPromotionalEmail      FlagName = "allow_promotional_email"
	AllowSMSMarketing          FlagName = "allow_sms_marketing"
	AllowPhoneMarketing        FlagName = "allow_phone_marketing"
	AllowPushNotifications     FlagName = "allow_push_notifications"
	AllowPartnerCommunications FlagName = "allow_partner_communications"
)

// Miscellaneous.
const (
	AllowPolicyChangeWithoutNotice        FlagName = "allow_policy_change_without_notice"
	AllowArbitrationClause                FlagName = "allow_arbitration_clause"
	AllowClassActionWaiver                FlagName = "allow_class_action_waiver"
	AllowAccountTerminationWithoutCause   FlagName = "allow_account_termination_without_cause"
	AllowContentLicense                   FlagName = "allow_content_license"
	AllowMinorDataCollection              FlagName = "allow_minor_data_collection"
)

// flagSpec pins a flag's category and default.  Defaults are per-flag, not a
// blanket value: uncontroversial practices default permissive, invasive ones
// default restrictive.
type flagSpec struct {
	Category FlagCategory
	Default  bool
}

// registry is the authoritative table of every flag.  Adding a flag here is
// all that is required for it to round-trip through storage and the API;
// personalization impact additionally needs a rule-table entry.
var registry = map[FlagName]flagSpec{
	AllowDataSelling:          {GroupSharing, false},
	AllowThirdPartySharing:    {GroupSharing, false},
	AllowMarketingDataSharing: {GroupSharing, false},
	AllowAffiliateSharing:     {GroupSharing, true},
	AllowAggregateSharing:     {GroupSharing, true},
	AllowResearchSharing:      {GroupSharing, true},

	AllowPreciseLocation:           {GroupCollection, false},
	AllowCoarseLocation:            {GroupCollection, true},
	AllowCameraAccess:              {GroupCollection, false},
	AllowMicrophoneAccess:          {GroupCollection, false},
	AllowContactsAccess:            {GroupCollection, false},
	AllowKeyboardInputReading:      {GroupCollection, false},
	AllowClipboardReading:          {GroupCollection, false},
	AllowBrowsingHistoryCollection: {GroupCollection, false},
	AllowUsageAnalytics:            {GroupCollection, true},
	AllowCrashReports:              {GroupCollection, true},

	AllowCrossSiteTracking:    {GroupTracking, false},
	AllowThirdPartyCookies:    {GroupTracking, true},
	AllowFirstPartyCookies:    {GroupTracking, true},
	AllowDeviceFingerprinting: {GroupTracking, false},
	AllowAdTargeting:          {GroupTracking, true},
	AllowSessionReplay:        {GroupTracking, false},

	AllowIndefiniteRetention:   {GroupRetention, false},
	AllowPostDeletionRetention: {GroupRetention, false},
	AllowBackupRetention:       {GroupRetention, true},
	AllowLogRetention:          {GroupRetention, true},

	AllowEmployeeDataAccess:   {GroupInternalAccess, true},
	AllowContractorDataAccess: {GroupInternalAccess, false},
	AllowSupportAccess:        {GroupInternalAccess, true},

	AllowCrossBorderTransfer: {GroupCrossBorder, true},
	AllowNonAdequateTransfer: {GroupCrossBorder, false},
	AllowGovernmentRequests:  {GroupCrossBorder, true},

	AllowUnencryptedStorage:      {GroupSecurity, false},
	AllowUnencryptedTransmission: {GroupSecurity, false},
	AllowDelayedBreachNotice:     {GroupSecurity, false},

	AllowAITraining:         {GroupAI, false},
	AllowAutomatedDecisions: {GroupAI, false},
	AllowAIProfiling:        {GroupAI, false},
	AllowSyntheticContent:   {GroupAI, true},

	AllowPromotionalEmail:      {GroupCommunications, true},
	AllowSMSMarketing:          {GroupCommunications, false},
	AllowPhoneMarketing:        {GroupCommunications, false},
	AllowPushNotifications:     {GroupCommunications, true},
	AllowPartnerCommunications: {GroupCommunications, false},

	AllowPolicyChangeWithoutNotice:      {GroupMisc, false},
	AllowArbitrationClause:              {GroupMisc, true},
	AllowClassActionWaiver:              {GroupMisc, true},
	AllowAccountTerminationWithoutCause: {GroupMisc, false},
	AllowContentLicense:                 {GroupMisc, true},
	AllowMinorDataCollection:            {GroupMisc, false},
}

// IsKnown reports whether name is a registered flag.
func IsKnown(name FlagName) bool {
	_, ok := registry[name]
	return ok
}

// CategoryOf returns the category a flag belongs to, or "" for unknown flags.
func CategoryOf(name FlagName) FlagCategory {
	return registry[name].Category
}

// DefaultOf returns a flag's default value.  Unknown flags default to false,
// the restrictive side.
func DefaultOf(name FlagName) bool {
	return registry[name].Default
}

// AllFlags returns every registered flag name.  Order is unspecified.
func AllFlags() []FlagName {
	out := make([]FlagName, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// FlagCount is the number of registered flags.
func FlagCount() int {
	return len(registry)
}
