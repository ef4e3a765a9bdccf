package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

// legalTerms is the fixed vocabulary used for the legal-keyword density
// component.  Counting is per occurrence, case-insensitive.
var legalTerms = []string{
	"agreement", "terms", "conditions", "privacy", "policy", "consent",
	"liability", "warranty", "indemnify", "jurisdiction", "arbitration",
	"clause", "provision", "herein", "thereof", "party", "parties",
	"obligations", "rights", "termination", "disclaimer", "governing",
}

var (
	reNumberedSection = regexp.MustCompile(`(?m)^\s*\d+[\.\)]\s+\S`)
	reSectionRef      = regexp.MustCompile(`(?i)\bsection\s+\d+`)
	reArticleRef      = regexp.MustCompile(`(?i)\barticle\s+\d+`)
	reCapsHeading     = regexp.MustCompile(`(?m)^[A-Z][A-Z\s\d\.,:;&\-]{11,}$`)
)

// QualityReport is the pre-analysis content-quality verdict.  Score is the
// arithmetic mean of the four component scores; a document is analyzable
// when the composite exceeds 0.6.
type QualityReport struct {
	Score           float64  `json:"score"`
	WordCountScore  float64  `json:"word_count_score"`
	DensityScore    float64  `json:"legal_density_score"`
	StructureScore  float64  `json:"structure_score"`
	LanguageScore   float64  `json:"language_score"`
	WordCount       int      `json:"word_count"`
	LegalTermCount  int      `json:"legal_term_count"`
	IsAnalyzable    bool     `json:"is_analyzable"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// EvaluateQuality scores raw document text.  It is a pure function: no
// configuration, no side effects, stable across calls.
func EvaluateQuality(content string) *QualityReport {
	words := strings.Fields(content)
	wordCount := len(words)

	r := &QualityReport{
		WordCount:      wordCount,
		WordCountScore: wordCountScore(wordCount),
	}

	lower := strings.ToLower(content)
	for _, term := range legalTerms {
		r.LegalTermCount += strings.Count(lower, term)
	}
	density := 0.0
	if wordCount > 0 {
		density = float64(r.LegalTermCount) / float64(wordCount) * 100
	}
	r.DensityScore = densityScore(density)

	if structuralMarkerCount(content) >= 2 {
		r.StructureScore = 1.0
	} else {
		r.StructureScore = 0.5
	}

	if looksEnglish(content) {
		r.LanguageScore = 1.0
	} else {
		r.LanguageScore = 0.8
	}

	r.Score = (r.WordCountScore + r.DensityScore + r.StructureScore + r.LanguageScore) / 4
	r.IsAnalyzable = r.Score > 0.6

	if r.WordCountScore <= 0.4 {
		r.Recommendations = append(r.Recommendations, "document is too short for a reliable analysis")
	}
	if r.DensityScore <= 0.4 {
		r.Recommendations = append(r.Recommendations, "low legal-keyword density; content may not be a legal document")
	}
	if r.StructureScore < 1.0 {
		r.Recommendations = append(r.Recommendations, "no recognizable legal document structure")
	}
	if r.LanguageScore < 1.0 {
		r.Recommendations = append(r.Recommendations, "document does not appear to be English; analysis quality may be reduced")
	}
	return r
}

// wordCountScore buckets the document length.  Very long documents score
// slightly below the sweet spot: they tend to bundle unrelated material.
func wordCountScore(n int) float64 {
	switch {
	case n < 100:
		return 0.1
	case n < 500:
		return 0.4
	case n < 2000:
		return 0.8
	case n < 10000:
		return 1.0
	case n < 20000:
		return 0.9
	default:
		return 0.7
	}
}

// densityScore buckets legal terms per hundred words.
func densityScore(d float64) float64 {
	switch {
	case d < 0.5:
		return 0.1
	case d < 1.5:
		return 0.4
	case d < 4:
		return 0.8
	case d < 10:
		return 1.0
	case d < 20:
		return 0.9
	default:
		return 0.7
	}
}

func structuralMarkerCount(content string) int {
	markers := 0
	if reNumberedSection.MatchString(content) {
		markers++
	}
	if reCapsHeading.MatchString(content) {
		markers++
	}
	if strings.Contains(strings.ToLower(content), "whereas") {
		markers++
	}
	if reSectionRef.MatchString(content) {
		markers++
	}
	if reArticleRef.MatchString(content) {
		markers++
	}
	return markers
}

// looksEnglish applies an ASCII-letter ratio heuristic.  Deliberately crude:
// language identification beyond this is out of scope.
func looksEnglish(content string) bool {
	var letters, ascii int
	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++
			if r < 128 {
				ascii++
			}
		}
	}
	if letters == 0 {
		return true
	}
	return float64(ascii)/float64(letters) >= 0.9
}
