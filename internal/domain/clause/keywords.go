package clause

import "strings"

// riskKeywords is the fixed vocabulary scanned when deriving a clause
// record's keyword list.  Matching is crude case-insensitive containment;
// there is deliberately no stemming or semantic matching.
var riskKeywords = []string{
	"sell", "share", "third party", "partner", "marketing", "advertis",
	"track", "cookie", "location", "camera", "microphone", "contacts",
	"retain", "indefinite", "transfer", "train", "profile", "fingerprint",
	"clipboard", "keyboard", "biometric", "delete",
}

// extractKeywords returns the subset of the fixed vocabulary contained in
// text, preserving vocabulary order.
func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range riskKeywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}
