package schema

import (
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// MIME MATCHING TESTS

func Test_Limits_Essence(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("text/plain", Essence("text/plain"))
	assert.Equal("text/plain", Essence("text/plain; charset=utf-8"))
	assert.Equal("image/png", Essence("Image/PNG"))
	assert.Equal("not a type", Essence("not a type"))
}

func Test_Limits_MatchMime(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		name        string
		patterns    []string
		contentType string
		match       bool
	}{
		{name: "empty patterns match everything", patterns: nil, contentType: "text/plain", match: true},
		{name: "exact essence", patterns: []string{"image/png"}, contentType: "image/png", match: true},
		{name: "exact essence with parameters", patterns: []string{"image/png"}, contentType: "image/png; foo=bar", match: true},
		{name: "case-insensitive", patterns: []string{"IMAGE/PNG"}, contentType: "image/png", match: true},
		{name: "wildcard subtype", patterns: []string{"image/*"}, contentType: "image/jpeg", match: true},
		{name: "wildcard wrong type", patterns: []string{"image/*"}, contentType: "text/plain", match: false},
		{name: "no pattern matches", patterns: []string{"image/png", "image/gif"}, contentType: "image/jpeg", match: false},
		{name: "second pattern matches", patterns: []string{"application/pdf", "text/*"}, contentType: "text/csv", match: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(test.match, MatchMime(test.patterns, test.contentType))
		})
	}
}
