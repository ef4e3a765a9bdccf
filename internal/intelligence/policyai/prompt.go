package policyai

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/errors"
)

// maxDocumentChars caps the document text embedded in a prompt.  Longer
// documents are truncated at a word boundary; the analyzer scores what it
// sees and the truncation is reported in the prompt so the model does not
// hallucinate missing sections.
const maxDocumentChars = 48000

const promptTemplateText = `You are a privacy-risk analyst. Analyze the following {{.ContentTypeLabel}} and respond with a single JSON object, no prose.

Score overall risk 0-100 and each of these categories 0-100:
{{range .Categories}}- {{.}}
{{end}}
For every clause that creates privacy risk for an ordinary user, emit an entry in "detected_clauses" with: clause_text (verbatim excerpt), section, position (0-based clause index), risk_level (low|medium|high|critical), risk_category (one of the categories above), explanation, user_impact, mitigation_advice.

Required response shape:
{"overall_risk_score": int, "confidence_score": float, "detected_clauses": [...], "risk_breakdown": {category: int, ...}, "recommendation_summary": string}
{{if .Truncated}}
NOTE: the document was truncated to its first {{.MaxChars}} characters.
{{end}}
DOCUMENT:
{{.DocumentText}}`

var promptTemplate = template.Must(template.New("analyze").Parse(promptTemplateText))

type promptData struct {
	ContentTypeLabel string
	Categories       []analysis.RiskCategory
	DocumentText     string
	Truncated        bool
	MaxChars         int
}

func contentTypeLabel(ct analysis.ContentType) string {
	switch ct {
	case analysis.ContentTermsOfService:
		return "terms of service document"
	case analysis.ContentPrivacyPolicy:
		return "privacy policy document"
	default:
		return "combined terms of service and privacy policy document"
	}
}

// BuildPrompt renders the analyzer prompt for a request.
func BuildPrompt(req *AnalyzeRequest) (string, error) {
	if strings.TrimSpace(req.DocumentText) == "" {
		return "", errors.InvalidParam("document text is empty")
	}
	text := req.DocumentText
	truncated := false
	if len(text) > maxDocumentChars {
		cut := text[:maxDocumentChars]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		text = cut
		truncated = true
	}
	cats := req.Categories
	if len(cats) == 0 {
		cats = analysis.AllRiskCategories
	}
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, promptData{
		ContentTypeLabel: contentTypeLabel(req.ContentType),
		Categories:       cats,
		DocumentText:     text,
		Truncated:        truncated,
		MaxChars:         maxDocumentChars,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to render analyzer prompt")
	}
	return buf.String(), nil
}
