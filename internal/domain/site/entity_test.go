package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/domain/analysis"
)

func TestSiteValidate(t *testing.T) {
	require.NoError(t, (&Site{Domain: "example.com"}).Validate())
	assert.Error(t, (&Site{}).Validate())
	assert.Error(t, (&Site{Domain: "example.com/path"}).Validate())
	assert.Error(t, (&Site{Domain: "example .com"}).Validate())
}

func TestHashFor(t *testing.T) {
	s := &Site{
		Domain:     "example.com",
		TOSHash:    "aaa",
		PolicyHash: "bbb",
	}
	assert.Equal(t, analysis.ContentHash("aaa"), s.HashFor(analysis.ContentTermsOfService))
	assert.Equal(t, analysis.ContentHash("bbb"), s.HashFor(analysis.ContentPrivacyPolicy))
	assert.Equal(t, analysis.ContentHash(""), s.HashFor(analysis.ContentCombined))
}

func TestDocumentChanged(t *testing.T) {
	s := &Site{Domain: "example.com"}

	// First sighting is not a change.
	assert.False(t, s.DocumentChanged(analysis.ContentTermsOfService, "abc"))

	s.TOSHash = "abc"
	assert.False(t, s.DocumentChanged(analysis.ContentTermsOfService, "abc"))
	assert.True(t, s.DocumentChanged(analysis.ContentTermsOfService, "def"))

	// Other document types are tracked independently.
	assert.False(t, s.DocumentChanged(analysis.ContentPrivacyPolicy, "def"))
}
